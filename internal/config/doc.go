// Package config provides configuration parsing for thbase.
//
// The configuration is stored in thbase.json (or thbase.yaml / thbase.yml)
// at the project root. A missing file is not an error for the server: every
// field has a default that reproduces the stock layout (image/ and base/
// next to the working directory, port 3000, 5 MiB uploads).
//
// # Configuration File Structure
//
//	{
//	  "port": 3000,
//	  "paths": {"image": "image", "base": "base"},
//	  "upload": {"maxFileSize": 5242880, "sniffContent": true},
//	  "store": {"driver": "file"},
//	  "images": {"driver": "disk", "prefix": "/image"},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "log": {"level": "info"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
