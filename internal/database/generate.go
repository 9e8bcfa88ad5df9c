package database

// Regenerate sqlc/schema.sql and the sqlc query code after adding a migration:
//
//	go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
