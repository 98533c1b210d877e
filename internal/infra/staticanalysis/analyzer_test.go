package staticanalysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegate/api/pkg/domain/scan"
	"github.com/codegate/api/pkg/logger"
)

const vulnerableJS = `const express = require('express');
const db = require('./db');

app.get('/users/:id', (req, res) => {
  const id = req.params.id;
  db.query("SELECT * FROM users WHERE id = " + id);
  res.json({ok: true});
});
`

func TestAnalyzer_Hypotheses(t *testing.T) {
	ctx := context.Background()
	analyzer := NewAnalyzer(logger.NewNop())

	t.Run("source flowing into sink", func(t *testing.T) {
		files := []scan.SourceFile{{Path: "src/users.js", Content: vulnerableJS, Language: "javascript"}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		require.Len(t, hyps, 1)

		hyp := hyps[0]
		assert.Equal(t, "sql_injection", hyp.VulnType)
		assert.Equal(t, "src/users.js", hyp.FilePath)
		assert.Equal(t, 5, hyp.StartLine) // req.params source
		assert.Equal(t, 6, hyp.EndLine)   // query sink
		assert.Contains(t, hyp.Snippet, "db.query")
		assert.Contains(t, hyp.DataFlow, "flows to")
		assert.NotEmpty(t, hyp.Source)
		assert.NotEmpty(t, hyp.Sink)
	})

	t.Run("sink without a nearby source is ignored", func(t *testing.T) {
		content := `db.query("SELECT * FROM users WHERE id = " + id);`
		files := []scan.SourceFile{{Path: "src/db.js", Content: content, Language: "javascript"}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		assert.Empty(t, hyps)
	})

	t.Run("language filter skips unlisted languages", func(t *testing.T) {
		files := []scan.SourceFile{{Path: "src/users.rb", Content: vulnerableJS, Language: "ruby"}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		assert.Empty(t, hyps)
	})

	t.Run("unknown language matches every pattern", func(t *testing.T) {
		files := []scan.SourceFile{{Path: "src/users", Content: vulnerableJS, Language: ""}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		assert.NotEmpty(t, hyps)
	})

	t.Run("command injection pattern", func(t *testing.T) {
		content := `const cmd = req.body.command;
child_process.exec(cmd);`
		files := []scan.SourceFile{{Path: "src/run.js", Content: content, Language: "javascript"}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		require.Len(t, hyps, 1)
		assert.Equal(t, "command_injection", hyps[0].VulnType)
	})

	t.Run("clean file emits nothing", func(t *testing.T) {
		content := `function add(a, b) { return a + b; }`
		files := []scan.SourceFile{{Path: "src/math.js", Content: content, Language: "javascript"}}

		hyps, err := analyzer.Hypotheses(ctx, files)

		require.NoError(t, err)
		assert.Empty(t, hyps)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := analyzer.Hypotheses(canceled, []scan.SourceFile{{Path: "a.js", Content: "x", Language: "javascript"}})

		assert.Error(t, err)
	})
}
