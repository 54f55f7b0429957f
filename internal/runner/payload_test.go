package runner

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadGenerator_Defaults(t *testing.T) {
	g, err := NewPayloadGenerator(OpCreate, "", "")
	require.NoError(t, err)

	in, err := g.Next(3, 7)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(in.Name, "User3_7_"), in.Name)
	assert.True(t, strings.HasPrefix(in.Email, "user3_7_"), in.Email)
	assert.True(t, strings.HasSuffix(in.Email, "@test.com"), in.Email)

	u, err := NewPayloadGenerator(OpUpdate, "", "")
	require.NoError(t, err)
	in, err = u.Next(1, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(in.Name, "UpdatedUser1_1_"), in.Name)
	assert.True(t, strings.HasPrefix(in.Email, "updated1_1_"), in.Email)
}

func TestPayloadGenerator_UniqueUnderConcurrency(t *testing.T) {
	g, err := NewPayloadGenerator(OpCreate, "", "")
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		names  = make(map[string]bool)
		emails = make(map[string]bool)
		wg     sync.WaitGroup
	)
	// Same worker/attempt pair on purpose: uniqueness must not rely on it.
	for w := 0; w < 20; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in, err := g.Next(1, 1)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				names[in.Name] = true
				emails[in.Email] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, names, 2000)
	assert.Len(t, emails, 2000)
}

func TestPayloadGenerator_CustomTemplates(t *testing.T) {
	g, err := NewPayloadGenerator(OpCreate, "load-{{.Worker}}-{{.Attempt}}", `{{lower "QA"}}+{{.Token}}@example.org`)
	require.NoError(t, err)

	in, err := g.Next(2, 5)
	require.NoError(t, err)
	assert.Equal(t, "load-2-5", in.Name)
	assert.True(t, strings.HasPrefix(in.Email, "qa+"), in.Email)
	assert.True(t, strings.HasSuffix(in.Email, "@example.org"), in.Email)
}

func TestPayloadGenerator_BadTemplate(t *testing.T) {
	_, err := NewPayloadGenerator(OpCreate, "{{.Worker", "")
	assert.Error(t, err)

	_, err = NewPayloadGenerator(OpCreate, "", "{{nope}}")
	assert.Error(t, err)
}
