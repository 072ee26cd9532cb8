// Package docs registers the OpenAPI description of the development backend
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in; MFA accounts receive a challenge", "responses": {"200": {"description": "tokens or MFA challenge"}, "401": {"description": "invalid credentials"}}}},
        "/auth/mfa/verify": {"post": {"tags": ["auth"], "summary": "Answer an MFA challenge", "responses": {"200": {"description": "tokens"}, "401": {"description": "invalid or expired code"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Rotate the token pair", "responses": {"200": {"description": "tokens"}, "401": {"description": "invalid refresh token"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Revoke the session tokens", "responses": {"200": {"description": "logged out"}}}},
        "/auth/password-reset": {"post": {"tags": ["auth"], "summary": "Request a password reset", "responses": {"200": {"description": "always accepted"}}}},
        "/auth/password-reset/confirm": {"post": {"tags": ["auth"], "summary": "Set a new password", "responses": {"200": {"description": "updated"}, "400": {"description": "invalid token"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current user", "responses": {"200": {"description": "user"}}}},
        "/clients": {
            "get": {"tags": ["clients"], "security": [{"BearerAuth": []}], "summary": "List clients", "responses": {"200": {"description": "page of clients"}}},
            "post": {"tags": ["clients"], "security": [{"BearerAuth": []}], "summary": "Create a client", "responses": {"201": {"description": "client"}, "409": {"description": "company name taken"}}}
        },
        "/clients/{id}": {
            "get": {"tags": ["clients"], "security": [{"BearerAuth": []}], "summary": "Get a client", "responses": {"200": {"description": "client"}, "404": {"description": "not found"}}},
            "put": {"tags": ["clients"], "security": [{"BearerAuth": []}], "summary": "Update a client", "responses": {"200": {"description": "client"}}},
            "delete": {"tags": ["clients"], "security": [{"BearerAuth": []}], "summary": "Delete a client", "responses": {"200": {"description": "deleted"}, "409": {"description": "active requisitions"}}}
        },
        "/candidates": {
            "get": {"tags": ["candidates"], "security": [{"BearerAuth": []}], "summary": "Search candidates", "responses": {"200": {"description": "page of candidates"}}},
            "post": {"tags": ["candidates"], "security": [{"BearerAuth": []}], "summary": "Create a candidate", "responses": {"201": {"description": "candidate"}}}
        },
        "/candidates/{id}": {
            "get": {"tags": ["candidates"], "security": [{"BearerAuth": []}], "summary": "Get a candidate", "responses": {"200": {"description": "candidate"}}},
            "put": {"tags": ["candidates"], "security": [{"BearerAuth": []}], "summary": "Update a candidate", "responses": {"200": {"description": "candidate"}}},
            "delete": {"tags": ["candidates"], "security": [{"BearerAuth": []}], "summary": "Delete a candidate", "responses": {"200": {"description": "deleted"}}}
        },
        "/requisitions": {
            "get": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "List requisitions", "responses": {"200": {"description": "page of requisitions"}}},
            "post": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "Create a requisition", "responses": {"201": {"description": "requisition"}}}
        },
        "/requisitions/{id}": {
            "get": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "Get a requisition", "responses": {"200": {"description": "requisition"}}},
            "put": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "Update a requisition", "responses": {"200": {"description": "requisition"}}},
            "delete": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "Delete a requisition", "responses": {"200": {"description": "deleted"}}}
        },
        "/requisitions/{id}/close": {"post": {"tags": ["requisitions"], "security": [{"BearerAuth": []}], "summary": "Close a requisition", "responses": {"200": {"description": "requisition"}, "409": {"description": "already closed"}}}},
        "/analytics/metrics": {"get": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Recruitment KPIs per week", "responses": {"200": {"description": "page of metrics"}}}},
        "/analytics/hiring-performance": {"get": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Hiring performance with trends", "responses": {"200": {"description": "performance"}}}},
        "/analytics/skill-trends": {"get": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Skill demand, supply and gaps", "responses": {"200": {"description": "skills analytics"}}}},
        "/analytics/reports/performance": {"get": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Performance report", "responses": {"200": {"description": "report"}}}},
        "/analytics/refresh": {"post": {"tags": ["analytics"], "security": [{"BearerAuth": []}], "summary": "Recompute aggregates", "responses": {"200": {"description": "refresh result"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "RefactorTrack development API",
	Description:      "In-memory backend for the RefactorTrack SDK.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
