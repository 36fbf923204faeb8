// Package bot assembles the VIP subscription bot on top of the core runtime.
package bot

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/vipbot/core/bootstrap"
	corecmd "github.com/m3rciful/vipbot/core/cmd"
	coretelegram "github.com/m3rciful/vipbot/core/telegram"
	"github.com/m3rciful/vipbot/core/telegram/commands"
	"github.com/m3rciful/vipbot/core/telegram/middleware"
	"github.com/m3rciful/vipbot/core/telegram/router"
	"github.com/m3rciful/vipbot/internal/config"
	"github.com/m3rciful/vipbot/internal/payments"
	"github.com/m3rciful/vipbot/internal/session"
	"github.com/m3rciful/vipbot/internal/vip"
)

// App is the assembled bot application.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	handlers *Handlers
}

// LoadConfig reads the application configuration for the cmd runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	return config.Load(path)
}

// flowProvider builds the payment flow from configuration and the database
// handle supplied by bootstrap.
var flowProvider = bootstrap.TypedServiceProviderFunc[*Flow](
	func(ctx context.Context, rawCfg interface{}, storage bootstrap.Storage) (*Flow, error) {
		cfg, ok := rawCfg.(*config.Config)
		if !ok {
			return nil, fmt.Errorf("bot: unexpected config type %T", rawCfg)
		}
		db, ok := storage.(*sqlx.DB)
		if !ok {
			return nil, fmt.Errorf("bot: unexpected storage type %T", storage)
		}

		grants := vip.NewService(vip.NewPostgresStore(db), cfg.VIP.DurationDays)

		var invoices InvoiceCreator
		if cfg.Payments.Crypto.BaseURL != "" {
			invoices = payments.NewClient(payments.Config{
				BaseURL:     cfg.Payments.Crypto.BaseURL,
				APIKey:      cfg.Payments.Crypto.APIKey,
				CallbackURL: cfg.Payments.Crypto.CallbackURL,
				SuccessURL:  cfg.Payments.Crypto.SuccessURL,
				CancelURL:   cfg.Payments.Crypto.CancelURL,
			}, nil)
		}

		return NewFlow(session.NewManager(), invoices, grants, cfg.Price()), nil
	},
)

// Bootstrap initializes infrastructure and assembles the application.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	flow, err := flowProvider.ProvideTyped(context.Background(), cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		db:       res.DB,
		handlers: NewHandlers(flow, cfg),
	}, nil
}

// Registry builds the command and callback registry.
func (a *App) Registry() *coretelegram.Registry {
	h := a.handlers
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Start the bot and show the menu",
	})
	reg.RegisterCommand("/info", commands.Command{
		Handler:     h.Info,
		Description: "About the VIP channel",
		Aliases:     []string{btnInfo},
	})
	reg.RegisterCommand("/buy", commands.Command{
		Handler:     h.Buy,
		Description: "Buy VIP access",
		Aliases:     []string{btnBuy},
	})
	reg.RegisterCommand("/vip", commands.Command{
		Handler:     h.VIP,
		Description: "Show your VIP access status",
	})
	reg.RegisterCommand("/check_payment", commands.Command{
		Handler:     h.CheckPayment,
		Description: "Check a pending crypto payment",
	})
	reg.RegisterCommand("/grants", commands.Command{
		Handler:     h.Grants,
		Description: "List recent VIP grants",
		AdminOnly:   true,
		Hidden:      true,
	})

	// Payment method choices arrive as reply keyboard button text; the
	// buttons are aliases of hidden commands so the text router resolves
	// them like any other command.
	reg.RegisterCommand("/pay_stars", commands.Command{
		Handler:     h.PayStars,
		Description: "Pay with Telegram Stars",
		Hidden:      true,
		Aliases:     []string{btnStars},
	})
	reg.RegisterCommand("/pay_crypto", commands.Command{
		Handler:     h.PayCrypto,
		Description: "Pay with crypto",
		Hidden:      true,
		Aliases:     []string{btnCrypto},
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.Cancel,
		Description: "Cancel a pending payment",
		Hidden:      true,
		Aliases:     []string{btnCancel},
	})

	_ = reg.RegisterCallback(cbCryptoCancel, h.CryptoCancel)

	return reg
}

// TelegramRunOptions prepares the bot runtime configuration.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := a.Registry()
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes,
		router.TextRoute(reg, router.TextOptions{}),
		router.CallbackRoute(reg, router.CallbackOptions{}),
		paymentRoute(tele.OnCheckout, a.handlers.Checkout),
		paymentRoute(tele.OnPayment, a.handlers.Payment),
	)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
	}, nil
}

func paymentRoute(endpoint any, h tele.HandlerFunc) coretelegram.Route {
	return coretelegram.Route{
		Endpoint: endpoint,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
	}
}
