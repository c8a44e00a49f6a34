package indexes_test

import (
	"context"
	"fmt"

	"github.com/dalemusser/sentinelboot/internal/domain/models"
)

// memCatalog is an in-memory indexes.Catalog.
type memCatalog struct {
	byColl  map[string][]models.ExistingIndex
	created []models.IndexRequirement
	listN   int

	listErr   error
	createErr func(req models.IndexRequirement) error
	// beforeCreate runs before a create is applied, e.g. to simulate a
	// concurrent writer.
	beforeCreate func(c *memCatalog, req models.IndexRequirement)
}

func newMemCatalog() *memCatalog {
	return &memCatalog{byColl: map[string][]models.ExistingIndex{}}
}

func (c *memCatalog) add(collection, name string, unique bool, fields ...string) {
	c.byColl[collection] = append(c.byColl[collection], models.ExistingIndex{
		Name:   name,
		Keys:   models.NewFieldSet(fields...),
		Unique: unique,
	})
}

func (c *memCatalog) List(_ context.Context, collection string) ([]models.ExistingIndex, error) {
	c.listN++
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]models.ExistingIndex, len(c.byColl[collection]))
	copy(out, c.byColl[collection])
	return out, nil
}

func (c *memCatalog) Create(_ context.Context, req models.IndexRequirement) (string, error) {
	if c.beforeCreate != nil {
		c.beforeCreate(c, req)
	}
	if c.createErr != nil {
		if err := c.createErr(req); err != nil {
			return "", err
		}
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s_auto_%d", req.Collection, len(c.created))
	}
	c.byColl[req.Collection] = append(c.byColl[req.Collection], models.ExistingIndex{
		Name:   name,
		Keys:   req.Keys,
		Unique: req.Unique,
	})
	c.created = append(c.created, req)
	return name, nil
}
