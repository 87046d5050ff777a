package config

// SampleFile is a commented config file documenting every option.
const SampleFile = `# swagger2ts configuration (YAML)
# All fields are optional. Environment variables (SWAGGER2TS_*) override
# this file; command-line flags override both.

# Local copy of the Swagger/OpenAPI document. When it exists it is used
# as-is and the remote URL is never contacted.
# documentPath: ./src/api/swagger.json

# Remote document. Fetched when the local copy is missing, then cached at
# documentPath (default: <apiDir>/swagger.json).
# documentUrl: https://example.com/v2/api-docs

# Credentials sent with the fetch request.
# cookie: SESSION=...
# token: ...

# Where request functions are appended, one file per namespace.
# apiDir: ./src/api

# Where type definitions are written. When omitted each namespace gets
# <apiDir>/<namespace>/.
# typeDir: ./src/types

# Text prepended to newly created request files, or a file providing it.
# fileHeader: "import request from '@/utils/request';"
# fileHeaderFile: ./templates/header.ts

# Register generated types in the directory's index.ts.
# autoExport: true
`
