// Package docs registers the swagger document served under /swagger/.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/webhook/whatsapp": {
            "post": {
                "description": "Routes a received WhatsApp message to the IA or to the human queue",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhook"],
                "summary": "Z-API inbound message",
                "parameters": [{"description": "Payload da Z-API", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.WebhookPayload"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/admin/atendimento/send": {
            "post": {
                "description": "Delivers the message through the gateway and records it as a human turn",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Send admin reply",
                "parameters": [
                    {"type": "string", "description": "Telefone", "name": "phone", "in": "formData", "required": true},
                    {"type": "string", "description": "Mensagem", "name": "message", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/admin/atendimento/return-to-ia/{phone}": {
            "post": {
                "description": "Flips every turn of the phone to IA mode, then sends the automatic greeting",
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Return conversation to IA",
                "parameters": [{"type": "string", "description": "Telefone", "name": "phone", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/atendimento/transfer/{phone}": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Transfer conversation to a human",
                "parameters": [
                    {"type": "string", "description": "Telefone", "name": "phone", "in": "path", "required": true},
                    {"type": "string", "description": "Motivo", "name": "reason", "in": "formData"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/atendimento/messages/{phone}": {
            "get": {
                "description": "Up to 1000 turns in ascending timestamp order",
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Conversation history",
                "parameters": [{"type": "string", "description": "Telefone", "name": "phone", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/atendimento/export/{phone}": {
            "post": {
                "description": "Uploads the conversation as JSON to S3 and returns its URL",
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Export conversation transcript",
                "parameters": [{"type": "string", "description": "Telefone", "name": "phone", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/admin/atendimento/mode/{phone}": {
            "get": {
                "description": "Current mode (ia or human); unseen phones are in IA mode",
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Attendance mode of a phone",
                "parameters": [{"type": "string", "description": "Telefone", "name": "phone", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/atendimento/api/ativos": {
            "get": {
                "description": "Same list as the awaiting-human page, as JSON",
                "produces": ["application/json"],
                "tags": ["atendimento"],
                "summary": "Active human attendances",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/treinamento/salvar": {
            "post": {
                "description": "Replaces the system prompt and the active flag, then redirects to the page",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["treinamento"],
                "summary": "Save bot training",
                "parameters": [
                    {"type": "string", "description": "Prompt (mínimo 10 caracteres)", "name": "system_prompt", "in": "formData", "required": true},
                    {"type": "boolean", "description": "Bot ativo", "name": "is_active", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/admin/api/bot/status": {
            "get": {
                "description": "Global IA switch and the number of conversations in human attendance",
                "produces": ["application/json"],
                "tags": ["treinamento"],
                "summary": "Bot status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/api/bot/toggle": {
            "post": {
                "description": "Turns the IA on or off for every client in IA mode",
                "produces": ["application/json"],
                "tags": ["treinamento"],
                "summary": "Toggle the bot",
                "parameters": [{"type": "boolean", "description": "Ligar ou desligar", "name": "enabled", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.APIResponse"}}
                }
            }
        },
        "/admin/conversas/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["conversas"],
                "summary": "Conversation stats",
                "parameters": [{"type": "integer", "default": 7, "description": "Dias", "name": "periodo", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/aprendizado/api/list": {
            "get": {
                "produces": ["application/json"],
                "tags": ["aprendizado"],
                "summary": "List suggestions",
                "parameters": [{"type": "string", "description": "pending, approved ou rejected", "name": "status", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/admin/orcamentos/api/list": {
            "get": {
                "description": "Quotes created in the last dias days, newest first, with stats over the returned list",
                "produces": ["application/json"],
                "tags": ["orcamentos"],
                "summary": "List quotes",
                "parameters": [
                    {"type": "integer", "default": 30, "description": "Dias", "name": "dias", "in": "query"},
                    {"type": "string", "default": "todos", "description": "todos, pendente, confirmado ou pago", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/orcamentos/api/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orcamentos"],
                "summary": "Quote stats",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/orcamentos/api/update-status": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orcamentos"],
                "summary": "Update quote status",
                "parameters": [{"description": "ID e novo status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.QuoteStatusRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "data": {},
                "timestamp": {"type": "string"}
            }
        },
        "models.QuoteStatusRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "65f1c8e2a1b2c3d4e5f60718"},
                "status": {"type": "string", "example": "confirmado"}
            }
        },
        "models.WebhookPayload": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "fromMe": {"type": "boolean"},
                "messageId": {"type": "string"},
                "isGroup": {"type": "boolean"},
                "senderName": {"type": "string"},
                "text": {"type": "object", "properties": {"message": {"type": "string"}}},
                "body": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Mia Admin API",
	Description:      "Back-office of the Mia WhatsApp bot: human attendance, quotes and knowledge review",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
