// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import "context"

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	actorIDKey  contextKey = "actor_id"
	roleKey     contextKey = "role"

	// explicitTenantKey holds the tenant ID resolved from request signals
	// (subdomain, path, query, body) before token validation ties it down.
	explicitTenantKey contextKey = "explicit_tenant_id"

	// tokenTenantKey holds the tenant binding carried by the token itself.
	tokenTenantKey contextKey = "token_tenant_id"
)

// GetTenantID retrieves the validated tenant ID from context. Empty until
// ValidateTenantAccess has run.
func GetTenantID(ctx context.Context) string {
	if val, ok := ctx.Value(tenantIDKey).(string); ok {
		return val
	}
	return ""
}

// GetActorID retrieves the authenticated actor ID from context.
func GetActorID(ctx context.Context) string {
	if val, ok := ctx.Value(actorIDKey).(string); ok {
		return val
	}
	return ""
}

// GetRole retrieves the authenticated actor's role from context.
func GetRole(ctx context.Context) string {
	if val, ok := ctx.Value(roleKey).(string); ok {
		return val
	}
	return ""
}

func getExplicitTenant(ctx context.Context) string {
	if val, ok := ctx.Value(explicitTenantKey).(string); ok {
		return val
	}
	return ""
}
