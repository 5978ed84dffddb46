// Package persist saves and restores cellgraph collections through
// pluggable key-value backends.
//
// # Stores
//
// The Store interface defines the backend contract:
//
//	store := persist.NewMemoryStore()
//	// or
//	store, err := persist.OpenSQLite(ctx, "todos.db")
//	// or
//	store, err := persist.NewS3Store(ctx, persist.S3Config{Bucket: "todos"})
//
// Open picks one from a Config, which is what the CLI uses.
//
// # Binding a Collection
//
// Bind creates a subscription that encodes a collection and saves it after
// every transaction that changed the sequence or an element:
//
//	values, err := persist.LoadValues[Todo](ctx, store, "todos", logger)
//	if err != nil {
//	    return err
//	}
//	todos := cellgraph.NewCollection(rt, values)
//	persist.Bind(todos, store, "todos")
//
// Data is stored as a versioned JSON envelope, {"version":1,"items":[...]}.
// Missing or corrupt data loads as an empty collection. Backend failures are
// returned to the caller.
package persist
