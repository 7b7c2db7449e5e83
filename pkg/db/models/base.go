package models

import "github.com/google/uuid"

// ensureID assigns a v4 id when the caller left it zero. Postgres has a
// gen_random_uuid() default as well; doing it here keeps SQLite happy.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
