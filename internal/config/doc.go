// Package config provides configuration loading for the todos command.
//
// The configuration is stored in cellgraph.json in the working directory
// and may be overridden field by field with CELLGRAPH_* environment
// variables.
//
// # Configuration File Structure
//
//	{
//	  "store": {
//	    "driver": "sqlite",
//	    "key": "todos-cellgraph",
//	    "sqlitePath": "todos.db",
//	    "s3": {"bucket": "todos", "region": "eu-west-1"}
//	  },
//	  "server": {"host": "localhost", "port": 8080, "metrics": true},
//	  "log": {"level": "info", "format": "text"},
//	  "runtime": {"commitBudget": 10000, "debug": false, "traceExporter": "stdout"}
//	}
//
// # Environment
//
//	CELLGRAPH_STORE_DRIVER=postgres
//	CELLGRAPH_STORE_POSTGRES_DSN=postgres://localhost/todos
//	CELLGRAPH_SERVER_PORT=9000
//	CELLGRAPH_LOG_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(config.ConfigFileName)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
