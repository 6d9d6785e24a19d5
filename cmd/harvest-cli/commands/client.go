package commands

import (
	"context"
	"log/slog"

	"webharvest/lib/configutil"
	"webharvest/lib/connector"
	"webharvest/lib/restyutil"
	"webharvest/lib/scrapers/articles"
	"webharvest/lib/scrapers/products"
	"webharvest/lib/serviceutil"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// optional; Login is only performed when set
	LoginUrl string `json:"login_url"`

	Headers          map[string]string `json:"headers"`
	UserAgent        string            `json:"user_agent"`
	BypassCloudflare bool              `json:"bypass_cloudflare"`

	Products products.ScraperOptions   `json:"products"`
	Articles articles.ExtractorOptions `json:"articles"`
}

func readConfig() Config {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return config
}

func createClient(ctx context.Context, config Config) *connector.Client {
	client, err := connector.NewClient(ctx, connector.ClientOptions{
		BaseUrl:          config.BaseUrl,
		Username:         config.Username,
		Password:         config.Password,
		Headers:          config.Headers,
		UserAgent:        config.UserAgent,
		BypassCloudflare: config.BypassCloudflare,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}

	if *debugHttpDir != "" {
		client.SetInstrumentOutput(restyutil.NewFilesystemOutput(*debugHttpDir))
	}

	if config.LoginUrl != "" {
		slog.Info("logging in", "login_url", config.LoginUrl, "username", config.Username)
		res, err := client.Login(ctx, config.LoginUrl, nil)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		slog.Info("login response", "status", res.StatusCode())
	}

	return client
}
