package dal

import (
	"context"
	"fmt"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/model"
)

// UserModel reads user documents ("User/<id>" in the users collection).
// This service never writes users; signup lives in the auth service.
type UserModel struct {
	conn *Connection
}

// NewUserModel creates a new user model instance
func NewUserModel(conn *Connection) *UserModel {
	return &UserModel{conn: conn}
}

func (um *UserModel) collection() *gocb.Collection {
	return um.conn.GetBucket().Scope("_default").Collection("users")
}

// GetByID retrieves a user by ID
func (um *UserModel) GetByID(ctx context.Context, id string) (*model.User, error) {
	docID := fmt.Sprintf("User/%s", id)

	result, err := um.collection().Get(docID, &gocb.GetOptions{Context: ctx})
	if err != nil {
		log.Warn().
			Err(err).
			Str("doc_id", docID).
			Msg("User not found")
		return nil, fmt.Errorf("user not found: %w", err)
	}

	var user model.User
	if err := result.Content(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// ListWorkers retrieves every user with the Worker role.
func (um *UserModel) ListWorkers(ctx context.Context) ([]model.User, error) {
	query := fmt.Sprintf(
		"SELECT d.* FROM `%s`.`_default`.`users` AS d WHERE d.role = $role ORDER BY META(d).id",
		um.conn.GetBucketName())

	rows, err := um.conn.GetCluster().Query(query, &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: map[string]interface{}{"role": model.RoleWorker},
	})
	if err != nil {
		log.Error().Err(err).Msg("Worker query failed")
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var workers []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Row(&u); err != nil {
			log.Warn().
				Err(err).
				Msg("Failed to decode user row")
			continue
		}
		workers = append(workers, u)
	}

	log.Debug().
		Int("count", len(workers)).
		Msg("Workers listed")
	return workers, nil
}
