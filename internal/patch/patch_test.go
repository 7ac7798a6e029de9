package patch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureImport(t *testing.T) {
	const (
		marker = "import { supabase } from"
		line   = "import { supabase } from './supabase-client.js';"
	)

	main := "// Luxe Queer Magazine Scripts\n"

	once, changed := EnsureImport(main, marker, line)
	require.True(t, changed)
	require.Equal(t, line+"\n"+main, once)

	twice, changed := EnsureImport(once, marker, line)
	require.False(t, changed)
	require.Equal(t, once, twice)
}

func TestEnsureImportMarkerAnywhere(t *testing.T) {
	// A hand-written import with a different path still counts.
	main := "const x = 1;\nimport { octaviaVoice } from './voice.js';\n"
	got, changed := EnsureImport(main, "import { octaviaVoice } from", "import { octaviaVoice } from './huggingface-client.js';")
	require.False(t, changed)
	require.Equal(t, main, got)
}

func TestEnsureImportStacksInOrder(t *testing.T) {
	main := ""
	main, _ = EnsureImport(main, "import { a } from", "import { a } from './a.js';")
	main, _ = EnsureImport(main, "import { b } from", "import { b } from './b.js';")
	require.Equal(t, "import { b } from './b.js';\nimport { a } from './a.js';\n", main)
}
