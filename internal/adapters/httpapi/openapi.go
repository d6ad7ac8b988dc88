package httpapi

import (
	"net/http"

	"github.com/Guilhem-Bonnet/course-player/internal/buildinfo"
	"github.com/Guilhem-Bonnet/course-player/internal/httpjson"
)

// handleOpenAPI renvoie le document OpenAPI de l'API JSON.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}
	jsonBody := func(schemaRef string) map[string]any {
		return map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	str := map[string]any{"type": "string"}
	boolean := map[string]any{"type": "boolean"}
	arrayOf := func(ref string) map[string]any {
		return map[string]any{"type": "array", "items": map[string]any{"$ref": ref}}
	}

	progressMutation := func(body string) map[string]any {
		op := map[string]any{
			"responses": map[string]any{
				"200": jsonOK("#/components/schemas/Progress"),
				"400": jsonErr,
				"500": jsonErr,
			},
		}
		if body != "" {
			op["requestBody"] = jsonBody(body)
		}
		return map[string]any{"post": op}
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "Course Player API",
			"version": buildinfo.Current().Version,
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"OpenAPIDocument": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": str,
						"code":  map[string]any{"type": "string", "enum": []any{"invalid_params", "io_error", "scan_failed"}},
					},
					"required": []any{"error"},
				},
				"Course": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":     str,
						"scanId":    str,
						"scannedAt": map[string]any{"type": "string", "format": "date-time"},
						"sections":  arrayOf("#/components/schemas/Section"),
						"warnings":  arrayOf("#/components/schemas/ScanWarning"),
					},
					"required": []any{"title", "scanId", "scannedAt", "sections", "warnings"},
				},
				"Section": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        map[string]any{"type": "string", "description": "Chemin relatif du dossier, \".\" pour la racine."},
						"title":     str,
						"videos":    arrayOf("#/components/schemas/Video"),
						"resources": arrayOf("#/components/schemas/Resource"),
					},
					"required": []any{"id", "title", "videos", "resources"},
				},
				"Video": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":    map[string]any{"type": "string", "description": "Chemin relatif depuis la racine du cours."},
						"title": str,
						"url":   str,
						"subtitle": map[string]any{
							"nullable": true,
							"allOf":    []any{map[string]any{"$ref": "#/components/schemas/Subtitle"}},
						},
						"watched": boolean,
					},
					"required": []any{"id", "title", "url", "subtitle", "watched"},
				},
				"Subtitle": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path":   str,
						"format": map[string]any{"type": "string", "enum": []any{"vtt", "srt"}},
						"url":    map[string]any{"type": "string", "description": "Toujours servi en WebVTT."},
					},
				},
				"Resource": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":   str,
						"name": str,
						"url":  str,
					},
				},
				"ScanWarning": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path":   str,
						"reason": str,
					},
				},
				"Progress": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"watched": map[string]any{"type": "array", "items": str},
						"resume":  map[string]any{"$ref": "#/components/schemas/Resume"},
					},
					"required": []any{"watched"},
				},
				"Resume": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"videoId":     str,
						"timeSeconds": map[string]any{"type": "number", "format": "double", "minimum": 0},
					},
					"required": []any{"videoId", "timeSeconds"},
				},
				"WatchRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"videoId": str,
						"watched": map[string]any{"type": "boolean", "default": true},
					},
					"required": []any{"videoId"},
				},
				"LegacyPathRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"path": str,
					},
					"required": []any{"path"},
				},
			},
		},
		"paths": map[string]any{
			"/api/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/openapi.json": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": jsonOK("#/components/schemas/OpenAPIDocument")}},
			},
			"/api/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE (progress.updated, course.rescanned)"}}},
			},
			"/api/course": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Course"),
						"503": jsonErr,
					},
				},
			},
			"/api/course/rescan": map[string]any{
				"post": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Course"),
						"500": jsonErr,
					},
				},
			},
			"/api/progress": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Progress"),
						"500": jsonErr,
					},
				},
			},
			"/api/progress/watch":  progressMutation("#/components/schemas/WatchRequest"),
			"/api/progress/resume": progressMutation("#/components/schemas/Resume"),
			"/api/progress/reset":  progressMutation(""),
			"/api/mark_watched": map[string]any{
				"post": map[string]any{
					"deprecated":  true,
					"requestBody": jsonBody("#/components/schemas/LegacyPathRequest"),
					"responses":   map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr, "500": jsonErr},
				},
			},
			"/api/toggle_watched": map[string]any{
				"post": map[string]any{
					"deprecated":  true,
					"requestBody": jsonBody("#/components/schemas/LegacyPathRequest"),
					"responses":   map[string]any{"200": map[string]any{"description": "OK"}, "400": jsonErr, "500": jsonErr},
				},
			},
			"/api/reset_progress": map[string]any{
				"post": map[string]any{
					"deprecated": true,
					"responses":  map[string]any{"200": map[string]any{"description": "OK"}, "500": jsonErr},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
