/*
 * Copyright (c) 2025, Feathery, Inc. (https://feathery.io).
 *
 * Feathery, Inc. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"database/sql"
	"fmt"

	"github.com/feathery-org/formflow/internal/system/config"
	"github.com/feathery-org/formflow/internal/system/database/client"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	dataSourceTypePostgres = "postgres"
	dataSourceTypeSQLite   = "sqlite"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface.
type DBProvider struct {
	cfg config.DatabaseConfig
}

// NewDBProvider creates a database provider for the given configuration.
func NewDBProvider(cfg config.DatabaseConfig) DBProviderInterface {
	return &DBProvider{cfg: cfg}
}

// GetDBClient returns a database client for the configured data source.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {
	var driverName, dsn string
	switch d.cfg.Type {
	case dataSourceTypePostgres:
		driverName = dataSourceTypePostgres
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.cfg.Hostname, d.cfg.Port, d.cfg.Username, d.cfg.Password, d.cfg.Name, d.cfg.SSLMode)
	case dataSourceTypeSQLite:
		driverName = dataSourceTypeSQLite
		dsn = d.cfg.Path
	default:
		return nil, fmt.Errorf("unsupported database type: %s", d.cfg.Type)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return client.NewDBClient(db), nil
}
