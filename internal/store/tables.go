package store

import "github.com/aberthet/chantier-sync/models"

// entityTables maps each replicated entity kind to its authoritative table.
// Resolving through this registry is the only way repository code may name an
// entity table, which keeps the closed-set invariant in one place.
var entityTables = map[models.EntityKind]string{
	models.EntityProject:    "projects",
	models.EntityBordereau:  "bordereaux",
	models.EntityPeriode:    "periodes",
	models.EntityMetre:      "metres",
	models.EntityDecompt:    "decompts",
	models.EntityPhoto:      "photos",
	models.EntityPV:         "pvs",
	models.EntityAttachment: "attachments",
	models.EntityCompany:    "companies",
}

// entityTable resolves kind to its table name.
func entityTable(kind models.EntityKind) (string, error) {
	table, ok := entityTables[kind]
	if !ok {
		return "", ErrUnknownEntityKind
	}
	return table, nil
}
