package tests

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"testing"

	"gopkg.in/yaml.v2"
)

type testConfig struct {
	Endpoint string
}

var cfg = loadConfig()

func loadConfig() testConfig {

	data, err := os.ReadFile("service_test.yml")
	if err != nil {
		log.Fatal(err)
	}

	var c testConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		log.Fatal(err)
	}

	// allow environment variables to override the configuration file
	if len(os.Getenv("TC_ENDPOINT")) != 0 {
		c.Endpoint = os.Getenv("TC_ENDPOINT")
	}

	log.Printf("endpoint [%s]\n", c.Endpoint)

	return c
}

func requireEndpoint(t *testing.T) {
	if len(cfg.Endpoint) == 0 {
		t.Skip("no endpoint configured; set TC_ENDPOINT or service_test.yml")
	}
}

func getJSON(path string, target interface{}) (int, error) {

	res, err := http.Get(fmt.Sprintf("%s%s", cfg.Endpoint, path))
	if err != nil {
		return 0, err
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, err
	}

	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return res.StatusCode, err
		}
	}

	return res.StatusCode, nil
}

//
// end of file
//
