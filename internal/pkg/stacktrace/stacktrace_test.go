package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/datasprint/internal/pkg/router.middlewareRecoverer.func1.1.1()
	/src/internal/pkg/router/middleware_recover.go:24 +0x6a
panic({0x10, 0x20})
	/usr/local/go/src/runtime/panic.go:787 +0x132
github.com/shandysiswandi/datasprint/internal/identity/inbound.(*HTTPEndpoint).Me(...)
	/src/internal/identity/inbound/http_endpoint.go:140
`)

	got := InternalPaths(stack)

	assert.Equal(t, []string{
		"internal/pkg/router/middleware_recover.go:24",
		"internal/identity/inbound/http_endpoint.go:140",
	}, got)
}

func TestInternalPaths_Empty(t *testing.T) {
	assert.Empty(t, InternalPaths(nil))
}
