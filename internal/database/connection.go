package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options describes how to reach the directory database.
type Options struct {
	Driver   string // postgres, mysql or sqlite3
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite3 only
}

// Open connects to the configured database and verifies the connection
// with a short ping.
func Open(opts Options) (*sql.DB, error) {
	dsn, err := opts.dsn()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", opts.Driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", opts.Driver, err)
	}
	return db, nil
}

func (o Options) dsn() (string, error) {
	switch o.Driver {
	case "postgres":
		sslMode := o.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			o.Host, o.Port, o.User, o.Password, o.Name, sslMode), nil
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			o.User, o.Password, o.Host, o.Port, o.Name), nil
	case "sqlite3":
		if o.Path == "" {
			return ":memory:", nil
		}
		return o.Path, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", o.Driver)
	}
}
