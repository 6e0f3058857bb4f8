package main

import (
	"flag"
	"log"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/scriptbind/bridge/internal/binding"
	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/infrastructure/config"
	"github.com/scriptbind/bridge/internal/infrastructure/logging"
	"github.com/scriptbind/bridge/internal/memhost"
	"github.com/scriptbind/bridge/internal/script"
	"github.com/scriptbind/bridge/internal/value"
)

const elementID = 7

const demoScript = `
element.text = "hello";
element.color = "teal";

var observed = element.text;
var bounds = element.getBounds();
var keys = Object.keys(element);

fetchData("users").then(function (data) {
	notify(data.count);
});

observed + " / " + bounds.width + "x" + bounds.height + " / " + keys.join(",");
`

func main() {
	dev := flag.Bool("dev", false, "development logging")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	host := memhost.New(command.Default(), logger.Logger)

	rt := script.NewRuntime(script.Options{
		Sequence: 1,
		Applier:  host.Applier(),
		Config:   cfg.Script,
		Logger:   logger.Logger,
		OnUncaughtError: func(err error) {
			logger.Error("uncaught binding error", zap.Error(err))
		},
	})
	defer rt.Close()

	obj := binding.New(rt.Context(), elementID, logger.Logger)
	if err := host.Adopt(rt.Context(), obj.Target()); err != nil {
		logger.Fatal("failed to adopt target", zap.Error(err))
	}

	host.RegisterMethod("getBounds", func(targetID uint64, _ []value.Value) (value.Value, error) {
		return value.NewJSON(map[string]int{"width": 640, "height": 480})
	})

	host.RegisterAsyncCall(1, func(args []value.Value) (value.Value, error) {
		// Simulated host-side work off the script thread.
		time.Sleep(25 * time.Millisecond)
		return value.NewJSON(map[string]any{"collection": args[0].AsString(), "count": 3})
	})

	notified := make(chan int64, 1)
	host.RegisterSyncCall(2, func(args []value.Value) (value.Value, error) {
		notified <- args[0].AsInt64()
		return value.NewNull(), nil
	})

	err = rt.Do(func(vm *goja.Runtime) {
		vm.Set("element", rt.BindProxy(obj, []string{"getBounds"}))
		vm.Set("fetchData", rt.BindAsyncFunction(obj, 1))
		vm.Set("notify", rt.BindFunction(obj, 2))
	})
	if err != nil {
		logger.Fatal("failed to install globals", zap.Error(err))
	}

	obj.RegisterEventListener("click", 0)

	result, err := rt.RunScript("demo.js", demoScript)
	if err != nil {
		logger.Fatal("script failed", zap.Error(err))
	}
	logger.Info("script result", zap.String("value", result.String()))

	select {
	case count := <-notified:
		logger.Info("async completion observed", zap.Int64("count", count))
	case <-time.After(2 * time.Second):
		logger.Fatal("async completion never arrived")
	}

	text, _ := host.Property(elementID, "text")
	logger.Info("host store state",
		zap.Stringer("text", text),
		zap.Strings("listeners", host.Listeners(elementID)),
	)

	obj.Dispose()
	rt.Context().FlushPendingCommands()
	logger.Info("element disposed", zap.Bool("still_present", host.HasElement(elementID)))
}
