// Package docs 是 swag 格式的接口文档，由 gin-swagger 在调试模式下提供.
// 与 handle 包中的注解保持一致，可用 swag init -g cmd/attachvault/main.go 重新生成.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "yeisme",
            "email": "yefun2004@gmail.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/attachments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "附件列表",
                "parameters": [
                    {"type": "integer", "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "description": "每页数量", "name": "pageSize", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "上传附件",
                "parameters": [
                    {"type": "file", "description": "文件", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "存储引擎名称", "name": "storage", "in": "formData"},
                    {"type": "string", "description": "引用字段，例如 customers.avatar", "name": "attachmentField", "in": "formData"},
                    {"type": "string", "description": "JSON 对象", "name": "meta", "in": "formData"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "500": {"description": "Internal Server Error"}}
            },
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "批量删除附件",
                "parameters": [
                    {"type": "array", "items": {"type": "integer"}, "description": "附件 ID", "name": "filterByTk", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/attachments/trash": {
            "get": {
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "回收站",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/attachments/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "附件详情",
                "parameters": [{"type": "integer", "description": "附件 ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "删除附件",
                "parameters": [{"type": "integer", "description": "附件 ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/attachments/{id}/restore": {
            "post": {
                "produces": ["application/json"],
                "tags": ["附件"],
                "summary": "恢复附件",
                "parameters": [{"type": "integer", "description": "附件 ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/storages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["存储引擎"],
                "summary": "存储引擎列表",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["存储引擎"],
                "summary": "创建存储引擎",
                "parameters": [{"description": "存储引擎", "name": "storage", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/storages/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["存储引擎"],
                "summary": "存储引擎详情",
                "parameters": [{"type": "string", "description": "名称", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["存储引擎"],
                "summary": "修改存储引擎",
                "parameters": [
                    {"type": "string", "description": "名称", "name": "name", "in": "path", "required": true},
                    {"description": "修改的字段", "name": "storage", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["存储引擎"],
                "summary": "删除存储引擎",
                "parameters": [{"type": "string", "description": "名称", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/fields": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["附件字段"],
                "summary": "声明附件字段",
                "parameters": [{"description": "字段", "name": "field", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "AttachVault API",
	Description:      "AttachVault 附件存储服务，管理存储引擎、上传校验、附件记录与删除.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
