// Package config loads runtime configuration for the session client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   identity API base URL
//	-t int      request timeout (seconds, 0 disables)
//	-s string   storage backend (sqlite | redis)
//	-d string   SQLite database path
//	-r string   Redis address
//	-l string   log level
//
// # JSON schema
//
// Durations accept "10s" style strings or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://id.example.com/api",
//	  "request_timeout": "10s",
//	  "storage_backend": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "redis_key_prefix": "gophauth:",
//	  "phone_region": "GB",
//	  "log_level": "debug"
//	}
package config
