package handlers

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"payment-failure-monitor/internal/activity"
	"payment-failure-monitor/internal/helpers/logs"
	"payment-failure-monitor/internal/payment"
	"payment-failure-monitor/internal/types"
)

const ServiceName = "Payment Failure Monitor"

var Endpoints = []string{"/", "/health", "/logs", "/test", "/webhook"}

type Handlers struct {
	Dispatcher *payment.Dispatcher
	Notifier   payment.Notifier
	Log        *activity.Log
	Now        func() time.Time
}

// NewApp builds the fiber app with the JSON codec and middleware the service uses.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	return app
}

// Start binds addr and serves app in the background. The startup line is only
// recorded once the port is bound; a bind failure is returned instead. Serve
// errors after that arrive on the returned channel.
func Start(app *fiber.App, addr string, log *activity.Log) (<-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	port := addr
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = fmt.Sprint(tcp.Port)
	}
	log.Recordf("Payment failure monitor started on port %s", port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listener(ln)
	}()
	return errCh, nil
}

func (h *Handlers) Register(app fiber.Router) {
	app.Get("/", h.RootHandler)
	app.Get("/health", h.HealthHandler)
	app.Get("/logs", h.LogsHandler)
	app.Post("/test", h.TestHandler)
	app.Post("/webhook", h.WebhookHandler)
}

func (h *Handlers) now() string {
	if h.Now == nil {
		return types.ISOTime(time.Now())
	}
	return types.ISOTime(h.Now())
}

// RootHandler describes the service.
func (h *Handlers) RootHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":      ServiceName,
		"status":    "running",
		"endpoints": Endpoints,
	})
}

func (h *Handlers) HealthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   h.now(),
	})
}

// LogsHandler returns the most recent activity entries, oldest first.
func (h *Handlers) LogsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"logs": h.Log.ReadRecent(activity.DefaultWindow),
	})
}

// TestHandler sends an alert for a synthetic failure. Only the notifier runs.
func (h *Handlers) TestHandler(c *fiber.Ctx) error {
	h.Log.Record("Test triggered")

	rec := types.FailureRecord{
		Email:      "test@example.com",
		CustomerID: "test_customer",
		Amount:     2000,
		Method:     "card",
		Reason:     "Test failure",
		ChargeID:   "test_charge",
		Date:       time.Now(),
	}
	err := h.Notifier.SendFailureAlert(c.UserContext(), rec)

	return c.JSON(fiber.Map{
		"message":   "Test complete",
		"emailSent": err == nil,
		"time":      h.now(),
	})
}

// WebhookHandler acknowledges every parseable event, even when handling it
// failed downstream. Only an unparseable body is rejected.
func (h *Handlers) WebhookHandler(c *fiber.Ctx) error {
	body := utils.CopyBytes(c.Body())

	res, err := h.Dispatcher.Dispatch(c.UserContext(), body)
	if err != nil {
		if errors.Is(err, payment.ErrMalformedEvent) {
			logs.ShowLogs("Rejected webhook: " + err.Error())
			return c.Status(http.StatusBadRequest).SendString("Invalid JSON")
		}
		return err
	}
	if res.Outcome != nil {
		logs.ShowLogs("Webhook handled for charge " + res.Outcome.Record.ChargeID)
	}

	return c.JSON(fiber.Map{"received": true})
}
