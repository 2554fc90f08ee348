package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"formbuilder/internal/config"
	"formbuilder/internal/engine"
	"formbuilder/internal/formschema"
	"formbuilder/internal/notify"
	"formbuilder/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, submission driver: %s)", cfg.Server.Port, cfg.Submission.Driver)

	// 2. Load baseline form
	form, err := formschema.LoadBaseline(cfg.Form.SchemaPath, cfg.Form.UISchemaPath)
	if err != nil {
		log.Fatalf("Failed to load baseline form: %v", err)
	}
	log.Printf("Baseline form loaded (%d fields)", form.Schema.Properties.Len())

	// 3. Open submission sink
	sink, err := store.New(ctx, cfg.Submission, nil)
	if err != nil {
		log.Fatalf("Failed to open submission sink: %v", err)
	}
	defer sink.Close()

	// 4. Notification bus: the store publishes on a channel, subscribers
	// read from it so mutations never wait on delivery.
	bus := notify.NewChannelNotifier(cfg.Notify.BufferSize)
	subscribers := notify.Multi{notify.NewLogNotifier(nil)}
	var webhook *notify.WebhookNotifier
	if cfg.Notify.WebhookURL != "" {
		webhook = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookHeaders, cfg.Notify.WebhookTimeout())
		subscribers = append(subscribers, webhook)
		log.Printf("Webhook notifications enabled (%s)", cfg.Notify.WebhookURL)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range bus.Events() {
			subscribers.Notify(ctx, event)
		}
	}()

	forms := formschema.NewStore(form, bus)

	// 5. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
	}))

	// 6. Health check
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "message": "Server is up !"})
	})

	// 7. Form routes
	handler := engine.NewHandler(forms, sink, cfg.Submission.SkipHidden)
	engine.RegisterFormRoutes(app, handler)

	// 8. Shut down on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	// 9. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Printf("ERROR: listen: %v", err)
	}

	bus.Close()
	<-done
	if webhook != nil {
		webhook.Wait()
	}
}
