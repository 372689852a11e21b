package models

// entityFields is the per-kind payload allow-list. The server persists only
// these keys when applying a pushed operation; anything else a client sends
// is dropped before storage. The sync engine still treats the values as
// opaque: the list only bounds the schema, it does not validate semantics.
var entityFields = map[EntityKind][]string{
	EntityProject:    {"name", "client", "address", "startDate", "endDate", "status", "companyId", "notes"},
	EntityBordereau:  {"projectId", "name", "lines", "tvaRate", "currency"},
	EntityPeriode:    {"projectId", "name", "startDate", "endDate", "closed"},
	EntityMetre:      {"projectId", "bordereauId", "periodeId", "lineId", "quantity", "comment", "date"},
	EntityDecompt:    {"projectId", "periodeId", "number", "lines", "totalHT", "totalTTC", "validated"},
	EntityPhoto:      {"projectId", "periodeId", "caption", "takenAt", "fileRef"},
	EntityPV:         {"projectId", "title", "date", "attendees", "body", "fileRef"},
	EntityAttachment: {"projectId", "name", "mimeType", "size", "fileRef"},
	EntityCompany:    {"name", "siret", "address", "phone", "email"},
}

// referenceFields maps payload keys that hold a foreign entity id to the
// kind they reference. Values under these keys are canonicalized at every
// store boundary so a bare id and a prefixed id never coexist.
var referenceFields = map[string]EntityKind{
	"projectId":   EntityProject,
	"bordereauId": EntityBordereau,
	"periodeId":   EntityPeriode,
	"metreId":     EntityMetre,
	"decomptId":   EntityDecompt,
	"companyId":   EntityCompany,
}

// AllowedFields returns the payload allow-list for kind, or nil when the
// kind is unknown.
func AllowedFields(kind EntityKind) []string {
	return entityFields[kind]
}

// ReferenceFields returns the payload-key → referenced-kind mapping shared
// by the client reconcile engine and the server apply path.
func ReferenceFields() map[string]EntityKind {
	return referenceFields
}

// FilterPayload returns a copy of data containing only keys allow-listed for
// kind. A nil payload stays nil. Unknown kinds yield an empty payload rather
// than passing arbitrary keys through.
func FilterPayload(kind EntityKind, data Payload) Payload {
	if data == nil {
		return nil
	}

	allowed := entityFields[kind]
	out := make(Payload, len(allowed))
	for _, key := range allowed {
		if v, ok := data[key]; ok {
			out[key] = v
		}
	}
	return out
}
