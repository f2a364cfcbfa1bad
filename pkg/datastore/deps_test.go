package datastore_test

import (
	"testing"

	"obshub/testutil"
)

func TestNoInternalImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"pkg/datastore must not depend on internal packages")
}
