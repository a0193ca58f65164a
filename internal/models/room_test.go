package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_PairKey_Is_Order_Independent(t *testing.T) {
	req := require.New(t)
	a := uuid.New()
	b := uuid.New()

	req.Equal(PairKey(a, b), PairKey(b, a))
}

func Test_PairKey_Differs_For_Different_Pairs(t *testing.T) {
	req := require.New(t)
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	req.NotEqual(PairKey(a, b), PairKey(a, c))
	req.NotEqual(PairKey(a, b), PairKey(b, c))
}
