package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baastos/spacetravelling"
	"github.com/baastos/spacetravelling/views"
)

var (
	cfgFile string
	siteCfg spacetravelling.SiteConfig
)

var rootCmd = &cobra.Command{
	Use:   "spacetravelling",
	Short: "Spacetravelling - a Prismic-backed blog",
	Long: `Spacetravelling renders blog posts authored in Prismic.

"build" pre-renders the listing and the first page of posts into the page
store; "serve" serves those pages and renders the rest on demand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		siteCfg = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./spacetravelling.yaml)")
	rootCmd.AddCommand(serveCmd, buildCmd, versionCmd)
}

// loadConfig reads .env, an optional config file and SPACETRAVELLING_*
// environment variables, in increasing order of precedence.
func loadConfig() (spacetravelling.SiteConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	v := viper.New()
	v.SetDefault("name", "Spacetravelling")
	v.SetDefault("url", "http://localhost:3000")
	v.SetDefault("addr", ":3000")
	v.SetDefault("database_path", "data/pages.db")
	v.SetDefault("listing_page_size", 1)
	v.SetDefault("paths_page_size", 20)
	v.SetDefault("feed_limit", 100)
	v.SetDefault("append_mode", string(spacetravelling.AppendFirst))
	v.SetDefault("siblings", true)
	v.SetDefault("fallback", true)
	v.SetDefault("revalidate", "0s")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("comments_repo", "baastos/desafio-ignite-adicionando-feature-ao-blog")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("spacetravelling")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return spacetravelling.SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.Println("Using config file:", v.ConfigFileUsed())
	}

	mode, err := spacetravelling.ParseAppendMode(v.GetString("append_mode"))
	if err != nil {
		return spacetravelling.SiteConfig{}, err
	}

	cfg := spacetravelling.SiteConfig{
		Name:            v.GetString("name"),
		URL:             strings.TrimSuffix(v.GetString("url"), "/"),
		Description:     v.GetString("description"),
		Addr:            v.GetString("addr"),
		DatabasePath:    v.GetString("database_path"),
		PrismicEndpoint: v.GetString("prismic_endpoint"),
		PrismicToken:    v.GetString("prismic_token"),
		ListingPageSize: v.GetInt("listing_page_size"),
		PathsPageSize:   v.GetInt("paths_page_size"),
		FeedLimit:       v.GetInt("feed_limit"),
		AppendMode:      mode,
		Siblings:        v.GetBool("siblings"),
		Fallback:        v.GetBool("fallback"),
		Revalidate:      v.GetDuration("revalidate"),
		SessionSecret:   v.GetString("session_secret"),
		CookieSecure:    v.GetBool("cookie_secure"),
		Comments: spacetravelling.CommentsConfig{
			Repo: v.GetString("comments_repo"),
		},
	}
	if cfg.PrismicEndpoint == "" {
		return cfg, errors.New("prismic_endpoint is required (set SPACETRAVELLING_PRISMIC_ENDPOINT)")
	}
	return cfg, nil
}

// newApp wires the site's views into the engine.
func newApp(cfg spacetravelling.SiteConfig) *spacetravelling.App {
	return spacetravelling.New(cfg, views.Default(cfg))
}
