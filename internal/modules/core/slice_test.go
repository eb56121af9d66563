package core_test

import (
	"strconv"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/modules/core"

	"github.com/stretchr/testify/require"
)

func Test_Map_Projects_Each_Element_In_Order(t *testing.T) {
	// Act
	result := core.Map([]int{3, 1, 2}, strconv.Itoa)

	// Assert
	require.Equal(t, []string{"3", "1", "2"}, result)
	require.Empty(t, core.Map([]int(nil), strconv.Itoa))
}
