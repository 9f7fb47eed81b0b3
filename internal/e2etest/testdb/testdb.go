// Package testdb provisions a throwaway postgres database for the DB-backed
// tests. The server to use comes from TEST_DATABASE_URI; when the variable is
// unset NewTestDBInstance returns nil and callers are expected to skip.
package testdb

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TestDBInstance struct {
	DSN string

	name  string
	admin *pgxpool.Pool
}

func NewTestDBInstance() (*TestDBInstance, error) {
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		return nil, nil
	}

	admin, err := pgxpool.New(context.Background(), uri)
	if err != nil {
		return nil, fmt.Errorf("connect test server: %w", err)
	}

	name := fmt.Sprintf("rifastatus_test_%d", time.Now().UnixNano())
	if _, err := admin.Exec(context.Background(), "create database "+name); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create test database: %w", err)
	}

	u, err := url.Parse(uri)
	if err != nil {
		admin.Close()
		return nil, fmt.Errorf("parse test uri: %w", err)
	}
	u.Path = "/" + name

	return &TestDBInstance{DSN: u.String(), name: name, admin: admin}, nil
}

func (t *TestDBInstance) Down() {
	_, _ = t.admin.Exec(context.Background(),
		fmt.Sprintf("drop database %s with (force)", t.name))
	t.admin.Close()
}
