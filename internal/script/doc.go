/*
Package script adapts the binding protocol to the goja JavaScript engine.

# Overview

A Runtime owns one goja VM pinned to a dedicated goroutine, which plays
the role of the script-execution thread: every script operation and every
promise settlement runs there, posted through the runtime's task loop. The
runtime registers an execution context on creation and tears it down on
Close.

Script-visible proxy objects are dynamic objects whose property reads,
writes, and enumerations forward through a binding Object; method names
listed at bind time become callables dispatched the same way. Anonymous
callables come in a synchronous flavor, which blocks the script thread for
one result, and an asynchronous flavor, which returns a pending promise
settled later through the promise bridge.

The core protocol packages never import goja; this package implements
their small interfaces (execution.TaskRunner, binding.PromiseResolver)
from the engine side.
*/
package script
