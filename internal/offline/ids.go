package offline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/habitek/inspectd/pkg/models"
)

// NewLocalID generates a placeholder id for an entity born offline. The
// prefix lets the sync processor recognize that the row has no remote
// counterpart yet; the timestamp keeps ids roughly sortable and the uuid
// fragment makes collisions on one device implausible.
func NewLocalID() string {
	return fmt.Sprintf("%s%d-%.8s", models.LocalIDPrefix, time.Now().UTC().UnixMilli(), uuid.NewString())
}
