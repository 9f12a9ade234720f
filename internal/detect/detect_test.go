package detect

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgate/internal/lang"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProject(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
		want  Frameworks
	}{
		{
			name:  "empty directory",
			setup: func(*testing.T, string) {},
			want:  Frameworks{},
		},
		{
			name: "nest wins over react in one package.json",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "package.json"), `{
					"dependencies": {"@nestjs/core": "^10.0.0", "react": "^18.0.0"}
				}`)
			},
			want: Frameworks{lang.TypeScript: NestJS, lang.JavaScript: NestJS},
		},
		{
			name: "express from devDependencies",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "package.json"), `{"devDependencies":{"express":"4"}}`)
			},
			want: Frameworks{lang.TypeScript: Express, lang.JavaScript: Express},
		},
		{
			name: "django requirements with extras and pins",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "requirements.txt"), "# deps\nrequests==2.31\nDjango[argon2]>=4.2\n")
			},
			want: Frameworks{lang.Python: Django},
		},
		{
			name: "fastapi in pyproject",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.poetry.dependencies]\nfastapi = \"^0.110\"\n")
			},
			want: Frameworks{lang.Python: FastAPI},
		},
		{
			name: "gin module and spring pom together",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "go.mod"), "module x\n\nrequire github.com/gin-gonic/gin v1.9.1\n")
				writeFile(t, filepath.Join(root, "pom.xml"), "<groupId>org.springframework.boot</groupId>\n")
			},
			want: Frameworks{lang.Go: Gin, lang.Java: Spring},
		},
		{
			name: "unparseable package.json is ignored",
			setup: func(t *testing.T, root string) {
				writeFile(t, filepath.Join(root, "package.json"), `{not json`)
			},
			want: Frameworks{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(t, root)
			assert.Equal(t, tt.want, Project(root))
		})
	}
}

func TestFile(t *testing.T) {
	tests := []struct {
		l       lang.Language
		content string
		want    string
	}{
		{lang.Python, "from django.http import JsonResponse\n", Django},
		{lang.Python, "import os\nfrom fastapi import Depends\n", FastAPI},
		{lang.Python, "# from flask import Flask\nimport json\n", ""},
		{lang.TypeScript, "import { Controller } from '@nestjs/common';\n", NestJS},
		{lang.JavaScript, "const express = require('express');\n", Express},
		{lang.TypeScript, "import Link from \"next/link\";\nimport React from 'react';\n", Next},
		{lang.TypeScript, "import { useState } from 'react';\n", React},
		{lang.Go, "import (\n\t\"github.com/labstack/echo/v4\"\n)\n", Echo},
		{lang.Go, "import \"github.com/go-chi/chi/v5\"\n", Chi},
		{lang.Java, "import org.springframework.web.bind.annotation.GetMapping;\n", Spring},
		{lang.Java, "import java.util.List;\n", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, File(tt.l, tt.content), tt.content)
	}
}

func TestDeclared(t *testing.T) {
	got := Declared("NestJS", "react")
	assert.Equal(t, Frameworks{lang.TypeScript: NestJS, lang.JavaScript: NestJS}, got)

	got = Declared("django", "next.js")
	assert.Equal(t, Frameworks{lang.Python: Django, lang.TypeScript: Next, lang.JavaScript: Next}, got)

	assert.Empty(t, Declared("rails", ""))
	assert.True(t, Known("Spring-Boot"))
	assert.False(t, Known("rails"))
}

func TestMemoPrecedenceAndCaching(t *testing.T) {
	memo := NewMemo(
		Frameworks{lang.Python: Flask, lang.TypeScript: React},
		Frameworks{lang.Python: Django},
	)

	assert.Equal(t, FastAPI, memo.Resolve("api/a.py", lang.Python, "from fastapi import APIRouter\n"))
	assert.Equal(t, Django, memo.Resolve("api/b.py", lang.Python, "import os\n"))
	assert.Equal(t, React, memo.Resolve("web/c.ts", lang.TypeScript, "export const x = 1\n"))
	assert.Equal(t, "", memo.Resolve("main.go", lang.Go, "package main\n"))

	// Memoized per path: different content for the same path is not re-read.
	assert.Equal(t, FastAPI, memo.Resolve("api/a.py", lang.Python, "import os\n"))
}

func TestMemoConcurrentResolve(t *testing.T) {
	memo := NewMemo(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Gin, memo.Resolve("h.go", lang.Go, `import "github.com/gin-gonic/gin"`))
		}()
	}
	wg.Wait()
}
