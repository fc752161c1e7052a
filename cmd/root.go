package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seequence/internal/config"
	"seequence/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "seequence",
	Short: "Seequence - story visualization API service",
	Long: `Seequence turns plain text into a sequence of illustrated scenes.
It segments a story with an LLM, writes image prompts, generates pictures
and optional narration audio, and serves it all over an HTTP API.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// GetConfig 返回已加载的配置
func GetConfig() *config.Config {
	return cfg
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.seequence")
	}

	// 环境变量设置
	viper.SetEnvPrefix("SEEQUENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "600s")

	// AI
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 4096)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Image
	viper.SetDefault("image.provider", "replicate")
	viper.SetDefault("image.replicate.model", "black-forest-labs/flux-1.1-pro")
	viper.SetDefault("image.replicate.timeout", "300s")
	viper.SetDefault("image.replicate.aspect_ratio", "16:9")
	viper.SetDefault("image.ark.size", "1280x720")

	// TTS
	viper.SetDefault("tts.provider", "openai")
	viper.SetDefault("tts.model", "gpt-4o-mini-tts")
	viper.SetDefault("tts.voice", "alloy")
	viper.SetDefault("tts.output_dir", "./output/audio")

	// Pipeline
	viper.SetDefault("pipeline.engine", "graph")
	viper.SetDefault("pipeline.max_concurrency", 4)
	viper.SetDefault("pipeline.style_guide",
		"Friendly illustrated style; kid- and dyslexia-friendly; gentle colors; clear primary subject; "+
			"soft lighting; clean composition; avoid text overlays and watermarks; maintain consistent characters/props across scenes.")

	// Storage
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local.base_path", "./output/images")
	viper.SetDefault("storage.local.base_url", "/static/images")

	// CORS
	viper.SetDefault("cors.origins", []string{"*"})

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")
}
