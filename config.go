package main

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Database string `yaml:"database"`
	} `yaml:"storage"`
	S3 struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
	} `yaml:"s3"`
}

func LoadConfig() *Config {
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	config := defaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("Failed to read config file, using defaults: %v", err)
	} else if err := yaml.Unmarshal(data, config); err != nil {
		log.Printf("Failed to parse config file, using defaults: %v", err)
		config = defaultConfig()
	}

	// Credentials may come from the environment instead of the file.
	if v := os.Getenv("SUBELO_S3_ACCESS_KEY"); v != "" {
		config.S3.AccessKey = v
	}
	if v := os.Getenv("SUBELO_S3_SECRET_KEY"); v != "" {
		config.S3.SecretKey = v
	}
	if v := os.Getenv("SUBELO_API_PORT"); v != "" {
		config.Server.Port = v
	}

	return config
}

func defaultConfig() *Config {
	config := &Config{}
	config.Server.Port = "8080"
	config.Storage.Database = "./subelo.db"
	config.S3.Endpoint = "http://localhost:9000"
	config.S3.Region = "us-east-1"
	config.S3.Bucket = "subelo"
	config.S3.AccessKey = "minioadmin"
	config.S3.SecretKey = "minioadmin"
	return config
}
