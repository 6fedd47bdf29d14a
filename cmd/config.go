package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"sort"
	"strings"
)

type serviceConfigIdentity struct {
	NameXID string `json:"name_xid,omitempty"` // translation ID
	DescXID string `json:"desc_xid,omitempty"` // translation ID
}

type serviceConfigService struct {
	Port          string `json:"port,omitempty"`
	RefreshSecret string `json:"refresh_secret,omitempty"`
}

type serviceConfigSource struct {
	RefURL          string `json:"ref_url,omitempty"`     // latest-commit endpoint for the register repository
	ArchiveURL      string `json:"archive_url,omitempty"` // zip archive of the register repository
	LocalDir        string `json:"local_dir,omitempty"`   // on-disk fallback copy of the same data
	ConnTimeout     string `json:"conn_timeout,omitempty"`
	ReadTimeout     string `json:"read_timeout,omitempty"`
	RefreshInterval string `json:"refresh_interval,omitempty"` // seconds between background refreshes; 0 disables
}

type serviceConfig struct {
	Identity serviceConfigIdentity `json:"identity,omitempty"`
	Service  serviceConfigService  `json:"service,omitempty"`
	Source   serviceConfigSource   `json:"source,omitempty"`
}

func getSortedJSONEnvVars() []string {
	var keys []string

	for _, keyval := range os.Environ() {
		key := strings.Split(keyval, "=")[0]
		if strings.HasPrefix(key, "REGISTER_FINDER_WS_JSON_") {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}

func loadConfig() *serviceConfig {
	cfg := serviceConfig{}

	// json configs

	envs := getSortedJSONEnvVars()

	valid := true

	for _, env := range envs {
		log.Printf("[CONFIG] loading %s ...", env)
		if val := os.Getenv(env); val != "" {
			dec := json.NewDecoder(bytes.NewReader([]byte(val)))
			dec.DisallowUnknownFields()

			if err := dec.Decode(&cfg); err != nil {
				log.Printf("error decoding %s: %s", env, err.Error())
				valid = false
			}
		}
	}

	if valid == false {
		log.Printf("exiting due to json decode error(s) above")
		os.Exit(1)
	}

	// optional convenience overrides to simplify deployment config

	if port := os.Getenv("REGISTER_FINDER_WS_PORT"); port != "" {
		cfg.Service.Port = port
	}

	if dir := os.Getenv("REGISTER_FINDER_WS_DATA_DIR"); dir != "" {
		cfg.Source.LocalDir = dir
	}

	composite, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("error encoding service config json: %s", err.Error())
		os.Exit(1)
	}

	log.Printf("[CONFIG] composite json:")
	log.Printf("\n%s", string(composite))

	return &cfg
}
