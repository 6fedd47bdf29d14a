package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"strings"
)

func main() {
	type cfgData struct {
		File   string
		EnvVar string
	}

	var cfgBase string
	var tgtEnv string
	var port string
	flag.StringVar(&cfgBase, "dir", "", "local directory containing per-environment config json")
	flag.StringVar(&tgtEnv, "env", "staging", "production or staging")
	flag.StringVar(&port, "port", "8080", "port to run the service on")
	flag.Parse()

	if cfgBase == "" {
		log.Fatal("dir is required")
	}
	if tgtEnv != "staging" && tgtEnv != "production" {
		log.Fatal("env must be staging or production")
	}

	envBase := path.Join(cfgBase, tgtEnv)

	log.Printf("Generate service config for %s from %s", tgtEnv, envBase)
	cfgFiles := []cfgData{
		{File: "identity.json", EnvVar: "REGISTER_FINDER_WS_JSON_01"},
		{File: "service.json", EnvVar: "REGISTER_FINDER_WS_JSON_02"},
		{File: "source.json", EnvVar: "REGISTER_FINDER_WS_JSON_03"},
	}

	out := make([]string, 0)
	for _, cf := range cfgFiles {
		tgtFile := path.Join(envBase, cf.File)
		jsonBytes, err := os.ReadFile(tgtFile)
		if err != nil {
			log.Fatal(err.Error())
		}

		if cf.EnvVar == "REGISTER_FINDER_WS_JSON_02" {
			// this is the service config where the port is set to "8080" override
			updated := strings.Replace(string(jsonBytes), "8080", port, 1)
			jsonBytes = []byte(updated)
		}

		// single-quote for the shell; the json itself never contains one
		val := strings.TrimSpace(string(jsonBytes))
		out = append(out, fmt.Sprintf("export %s='%s'", cf.EnvVar, val))
	}

	outF, err := os.Create("setup_env.sh")
	if err != nil {
		log.Fatal(err.Error())
	}
	outF.WriteString("#!/bin/bash\n\n")
	outF.WriteString(strings.Join(out, "\n"))
	outF.WriteString("\n")
	outF.Close()
	os.Chmod("setup_env.sh", 0777)
}
