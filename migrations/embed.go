// Package migrations embebe los scripts SQL del esquema.
package migrations

import "embed"

// FS contiene las migraciones de PostgreSQL.
//
//go:embed *.sql
var FS embed.FS

// Dir directorio dentro de FS donde viven las migraciones.
const Dir = "."
