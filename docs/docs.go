// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/tenant_service/main.go`.
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
    "paths": {
        "/api/users/register": {
            "post": {
                "description": "Creates a disabled account and issues a numeric verification code.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a new account",
                "parameters": [
                    {"description": "Account data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/register.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/register.Response"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Email or username already in use", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/users/verify": {
            "post": {
                "description": "Enables the account when the code matches and has not expired.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Verify an account",
                "parameters": [
                    {"description": "Email and verification code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/verify.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/verify.Response"}},
                    "400": {"description": "Validation or verification error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/users/verify/resend": {
            "post": {
                "description": "Replaces the pending code with a fresh one and queues it for delivery.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Resend the verification code",
                "parameters": [
                    {"description": "Account email", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/resend.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/resend.Response"}},
                    "400": {"description": "Validation error, unknown email or already verified", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/users/login": {
            "post": {
                "description": "Exchanges verified credentials for a signed bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/login.Request"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/login.Response"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unknown email or wrong password", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Email not verified", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/products": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns one page of the caller's products.",
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "List products",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Zero-based page", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Page size, at most 100", "name": "size", "in": "query"},
                    {"enum": ["createdAt", "updatedAt", "name", "price", "sku", "category"], "type": "string", "description": "Sort field", "name": "sortBy", "in": "query"},
                    {"enum": ["ASC", "DESC"], "type": "string", "description": "Sort direction", "name": "sortDir", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/products.PageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Create a product",
                "parameters": [
                    {"description": "Product", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/products.CreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/products.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "SKU already in use", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/products/decrypt": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Opens a ciphertext produced by GET /api/products/{id}.",
                "consumes": ["text/plain"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Decrypt a product",
                "parameters": [
                    {"description": "Base64 ciphertext", "name": "request", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/products.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/products/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the product JSON sealed with AES-GCM and Base64 encoded.",
                "produces": ["text/plain"],
                "tags": ["products"],
                "summary": "Get an encrypted product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Base64 ciphertext", "schema": {"type": "string"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Applies the fields present in the body and leaves the rest untouched.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Update a product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true},
                    {"description": "Changed fields", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/products.UpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/products.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Delete a product",
                "parameters": [
                    {"type": "integer", "description": "Product id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "register.Request": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8, "maxLength": 20},
                "username": {"type": "string", "maxLength": 64}
            }
        },
        "register.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "user_id": {"type": "string"},
                "verification_code": {"type": "string"}
            }
        },
        "verify.Request": {
            "type": "object",
            "required": ["email", "verificationCode"],
            "properties": {
                "email": {"type": "string"},
                "verificationCode": {"type": "string"}
            }
        },
        "verify.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "resend.Request": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "resend.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "verification_code": {"type": "string"}
            }
        },
        "login.Request": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8, "maxLength": 20}
            }
        },
        "login.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "token": {"type": "string"},
                "expiration": {"description": "Expiration is the token lifetime in milliseconds.", "type": "integer"}
            }
        },
        "models.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "sku": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "string"},
                "description": {"type": "string"},
                "features": {"type": "object", "additionalProperties": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "products.CreateRequest": {
            "type": "object",
            "required": ["category", "name", "price", "sku"],
            "properties": {
                "name": {"type": "string", "maxLength": 150},
                "sku": {"type": "string", "maxLength": 80},
                "category": {"type": "string", "maxLength": 60},
                "price": {"type": "number"},
                "description": {"type": "string", "maxLength": 2000},
                "features": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "products.UpdateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 150},
                "sku": {"type": "string", "maxLength": 80},
                "category": {"type": "string", "maxLength": 60},
                "price": {"type": "number"},
                "description": {"type": "string", "maxLength": 2000},
                "features": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "products.ProductResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "product": {"$ref": "#/definitions/models.Product"}
            }
        },
        "products.PageResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "error": {"type": "string"},
                "content": {"type": "array", "items": {"$ref": "#/definitions/models.Product"}},
                "page": {"type": "integer"},
                "size": {"type": "integer"},
                "total_elements": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tenant Service API",
	Description:      "Account lifecycle and tenant-scoped product catalogue.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
