package common

import (
	"testing"

	"github.com/khanghh/alumnet/params"
	"github.com/stretchr/testify/assert"
)

func TestPageRequest(t *testing.T) {
	p := PageRequest{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, params.DefaultPageLimit, p.Limit)
	assert.Equal(t, 0, p.Offset())

	p = PageRequest{Page: 3, Limit: 1000}.Normalize()
	assert.Equal(t, params.MaxPageLimit, p.Limit)
	assert.Equal(t, 2*params.MaxPageLimit, p.Offset())

	res := PageRequest{Page: 2, Limit: 10}.Result(21)
	assert.Equal(t, Pagination{Total: 21, Page: 2, Limit: 10, TotalPages: 3}, res)
	assert.Equal(t, 0, PageRequest{Page: 1, Limit: 10}.Result(0).TotalPages)
}
