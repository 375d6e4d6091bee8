package errorx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	v := fmt.Errorf("zone stage: %w", Validation("dest_postal_code", "must not be empty"))
	n := fmt.Errorf("tariff stage: %w", NotFound("tariff table", "lane=%s", "EU"))
	i := fmt.Errorf("rate: %w", Integrity("tariff rate", "no price set"))

	assert.True(t, IsValidation(v))
	assert.False(t, IsNotFound(v))
	assert.True(t, IsNotFound(n))
	assert.False(t, IsIntegrity(n))
	assert.True(t, IsIntegrity(i))
	assert.False(t, IsValidation(i))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "validation: dest_postal_code: must not be empty",
		Validation("dest_postal_code", "must not be empty").Error())
	assert.Equal(t, "validation: bad input", Validation("", "bad input").Error())
	assert.Equal(t, "tariff table not found (lane=EU)", NotFound("tariff table", "lane=%s", "EU").Error())
}
