package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgTypeNameFromOID(t *testing.T) {
	tests := []struct {
		oid  uint32
		want string
	}{
		{16, "BOOL"},
		{20, "INT8"},
		{23, "INT4"},
		{25, "TEXT"},
		{701, "FLOAT8"},
		{1043, "VARCHAR"},
		{1082, "DATE"},
		{1184, "TIMESTAMPTZ"},
		{1700, "NUMERIC"},
		{2950, "UUID"},
		{3802, "JSONB"},
		{1009, "TEXT[]"},
		{99999, "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pgTypeNameFromOID(tt.oid), "oid %d", tt.oid)
	}
}
