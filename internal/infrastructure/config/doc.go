// Package config loads and validates Lumen Hub Core configuration.
//
// Configuration is resolved in three layers:
//   - built-in defaults
//   - a YAML file
//   - LUMENHUB_* environment variables
//
// Secrets (JWT secret, MQTT password, InfluxDB token) should be supplied
// through the environment rather than committed to the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
