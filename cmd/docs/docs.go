// Package docs holds the OpenAPI description served by the Swagger UI.
// Regenerate with: swag init -g cmd/recon_backend/main.go -o cmd/docs
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
                "description": "Liveness probe for the reconciliation service.",
                "produces": ["application/json"],
                "tags": ["root"],
                "summary": "Show the status of server.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        },
        "/reference-rates": {
            "get": {
                "description": "Retrieves the reference rates effective on one day",
                "produces": ["application/json"],
                "tags": ["reference rates"],
                "summary": "List reference FX rates",
                "parameters": [
                    {"type": "string", "description": "Day in YYYY-MM-DD format", "name": "date", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListReferenceRatesResponse"}},
                    "400": {"description": "Missing or invalid date", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to list reference rates", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Adds or replaces the reference rate of a currency pair for one day. Batches without their own rates fall back on these.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reference rates"],
                "summary": "Store a reference FX rate",
                "parameters": [
                    {
                        "description": "Reference rate details",
                        "name": "rate",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ReferenceRateDTO"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ReferenceRateResponse"}},
                    "400": {"description": "Invalid input format or validation error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to save reference rate", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reconciliations": {
            "post": {
                "description": "Matches two transaction sources, detects breaks and classifies them. Malformed records are reported in report.rejected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reconciliations"],
                "summary": "Reconcile a batch",
                "parameters": [
                    {
                        "description": "Transactions of both sources plus reference data",
                        "name": "batch",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ReconcileRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReconcileResponse"}},
                    "400": {"description": "Invalid input format or validation error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "Too many requests", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to reconcile batch", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/reconciliations/{batchID}/exceptions": {
            "get": {
                "description": "Retrieves the stored exceptions of a reconciled batch in emission order",
                "produces": ["application/json"],
                "tags": ["reconciliations"],
                "summary": "List exceptions of a batch",
                "parameters": [
                    {"type": "string", "description": "Batch ID", "name": "batchID", "in": "path", "required": true},
                    {"type": "integer", "default": 100, "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Token from the previous page", "name": "nextToken", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListExceptionsResponse"}},
                    "400": {"description": "Invalid batch ID or query parameters", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Batch not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to list exceptions", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.SecurityIDsDTO": {
            "type": "object",
            "properties": {
                "isin": {"type": "string", "example": "US0378331005"},
                "cusip": {"type": "string", "example": "037833100"},
                "sedol": {"type": "string", "example": "2046251"}
            }
        },
        "dto.CouponDTO": {
            "type": "object",
            "properties": {
                "rate": {"type": "string", "example": "0.05"},
                "dayCount": {"type": "string", "example": "30/360"},
                "frequency": {"type": "integer", "example": 2},
                "lastPaymentDate": {"type": "string", "example": "2024-01-01"},
                "paymentDate": {"type": "string", "example": "2024-04-01"},
                "maturityDate": {"type": "string", "example": "2029-01-01"},
                "amount": {"type": "string", "example": "12500"}
            }
        },
        "dto.TransactionDTO": {
            "type": "object",
            "properties": {
                "externalId": {"type": "string", "example": "T-1001"},
                "source": {"type": "string", "example": "custodian"},
                "amount": {"type": "string", "example": "250000.00"},
                "currency": {"type": "string", "example": "USD"},
                "securities": {"$ref": "#/definitions/dto.SecurityIDsDTO"},
                "tradeDate": {"type": "string", "example": "2024-01-15"},
                "settlementDate": {"type": "string", "example": "2024-01-17"},
                "price": {"type": "string", "example": "150.25"},
                "quantity": {"type": "string", "example": "100"},
                "notional": {"type": "string"},
                "fxRate": {"type": "string", "example": "1.0850"},
                "baseCurrency": {"type": "string", "example": "USD"},
                "assetClass": {"type": "string", "example": "equity"},
                "securityType": {"type": "string", "example": "common_stock"},
                "coupon": {"$ref": "#/definitions/dto.CouponDTO"}
            }
        },
        "dto.ReferenceRateDTO": {
            "type": "object",
            "required": ["dateEffective", "fromCurrency", "rate", "toCurrency"],
            "properties": {
                "fromCurrency": {"type": "string", "example": "EUR"},
                "toCurrency": {"type": "string", "example": "USD"},
                "rate": {"type": "string", "example": "1.10"},
                "dateEffective": {"type": "string", "example": "2024-01-15"}
            }
        },
        "dto.ReferenceDataDTO": {
            "type": "object",
            "properties": {
                "fxRates": {"type": "array", "items": {"$ref": "#/definitions/dto.ReferenceRateDTO"}},
                "priceHistory": {"type": "object"}
            }
        },
        "dto.ReconcileRequest": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string", "example": "2024-01-19-eod"},
                "asOf": {"type": "string", "example": "2024-01-19T18:00:00Z"},
                "sourceA": {"type": "array", "items": {"$ref": "#/definitions/dto.TransactionDTO"}},
                "sourceB": {"type": "array", "items": {"$ref": "#/definitions/dto.TransactionDTO"}},
                "reference": {"$ref": "#/definitions/dto.ReferenceDataDTO"}
            }
        },
        "domain.TransactionRef": {
            "type": "object",
            "properties": {
                "side": {"type": "string"},
                "source": {"type": "string"},
                "externalId": {"type": "string"}
            }
        },
        "domain.FieldDiff": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "before": {"type": "string"},
                "after": {"type": "string"}
            }
        },
        "domain.RecordError": {
            "type": "object",
            "properties": {
                "side": {"type": "string"},
                "index": {"type": "integer"},
                "externalId": {"type": "string"},
                "field": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "domain.BatchReport": {
            "type": "object",
            "properties": {
                "totalA": {"type": "integer"},
                "totalB": {"type": "integer"},
                "rejected": {"type": "array", "items": {"$ref": "#/definitions/domain.RecordError"}},
                "exactMatches": {"type": "integer"},
                "fuzzyMatches": {"type": "integer"},
                "reviewMatches": {"type": "integer"},
                "unmatchedA": {"type": "integer"},
                "unmatchedB": {"type": "integer"},
                "ambiguousTies": {"type": "integer"},
                "exceptionsByType": {"type": "object", "additionalProperties": {"type": "integer"}},
                "exceptionsBySeverity": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        },
        "dto.MatchResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["exact", "fuzzy"]},
                "confidence": {"type": "number"},
                "fields": {"type": "array", "items": {"type": "string"}},
                "tieBreakTrail": {"type": "array", "items": {"type": "string"}},
                "reviewRequired": {"type": "boolean"},
                "a": {"$ref": "#/definitions/domain.TransactionRef"},
                "b": {"$ref": "#/definitions/domain.TransactionRef"}
            }
        },
        "dto.ExceptionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "matchId": {"type": "string"},
                "type": {"type": "string", "enum": ["security_identifier", "fixed_income_coupon", "market_price", "settlement_date", "fx_rate", "no_match_found", "low_confidence_match"]},
                "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "subReason": {"type": "string"},
                "detail": {"type": "object"},
                "diffs": {"type": "array", "items": {"$ref": "#/definitions/domain.FieldDiff"}},
                "impact": {"type": "string"},
                "currency": {"type": "string"},
                "reportingImpact": {"type": "string"},
                "reportingCurrency": {"type": "string"},
                "confidence": {"type": "number"},
                "status": {"type": "string"},
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/domain.TransactionRef"}},
                "annotation": {"type": "string"},
                "batchId": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "dto.ReconcileResponse": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string"},
                "asOf": {"type": "string"},
                "matches": {"type": "array", "items": {"$ref": "#/definitions/dto.MatchResponse"}},
                "exceptions": {"type": "array", "items": {"$ref": "#/definitions/dto.ExceptionResponse"}},
                "report": {"$ref": "#/definitions/domain.BatchReport"}
            }
        },
        "dto.ListExceptionsResponse": {
            "type": "object",
            "properties": {
                "batchId": {"type": "string"},
                "exceptions": {"type": "array", "items": {"$ref": "#/definitions/dto.ExceptionResponse"}},
                "nextToken": {"type": "string"}
            }
        },
        "dto.ReferenceRateResponse": {
            "type": "object",
            "properties": {
                "fromCurrency": {"type": "string"},
                "toCurrency": {"type": "string"},
                "rate": {"type": "string"},
                "dateEffective": {"type": "string"}
            }
        },
        "dto.ListReferenceRatesResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "rates": {"type": "array", "items": {"$ref": "#/definitions/dto.ReferenceRateResponse"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Reconciliation Engine API",
	Description:      "Matches transactions across two sources and classifies the breaks between them.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
