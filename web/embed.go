package web

import "embed"

// TemplatesFS holds the dashboard page, its partials and the error page.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.css and app.js, served under /static/.
//go:embed static/*
var StaticFS embed.FS
