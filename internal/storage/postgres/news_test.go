package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "news_items_link_key"}

	err := classify(unique)
	assert.ErrorIs(t, err, ErrConstraint)
	assert.Contains(t, err.Error(), "news_items_link_key")

	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

	syntax := &pq.Error{Code: "42601"}
	assert.Same(t, syntax, classify(syntax))

	plain := errors.New("conn reset")
	assert.Equal(t, plain, classify(plain))
}
