/*
Package binding implements the cross-boundary invocation protocol between
script-visible proxy objects and their host-side implementations.

# Overview

A script property access or method call enters through an Object, which:

 1. Flushes the owning context's mutation command queue, so every command
    issued before the call is applied before the host computes anything.
 2. Builds a tagged-value argument frame.
 3. Dispatches through the Target's host call path and receives one tagged
    value back.
 4. Surfaces failures through the exception channel, which the caller
    checks before trusting the returned value.

Asynchronous calls additionally allocate a promise bridge entry before
dispatch and return immediately; the host later delivers a completion that
is checked against the owning context's liveness and identity before the
promise is settled on the script thread.

# Call paths

A Target carries two capability slots injected exactly once at
construction: CallFromScript, implemented by the host side, and
CallFromHost, implemented by the script side. Neither side knows the
other's concrete type. Script-initiated and host-initiated construction
are both legal; whichever side creates the pairing first supplies its
slot, and the wrapping Object installs the other.

# Known leak boundary

A completion delivered for a dead or identity-mismatched context is
dropped without releasing its promise bridge entry. The entry stays in the
table forever and the promise never settles. This mirrors the upstream
behavior deliberately: releasing the entry would change observable
promise-settlement semantics. The abandoned entries are counted in the
bridge_async_completions_total metric.
*/
package binding
