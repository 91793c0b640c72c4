// Package policy holds the registry of per-category storage policies.
// Policies are registered during system initialization and read-only
// afterwards; an unmatched category is permissive by design.
package policy

import (
	"sync"

	"docstore-backend/internal/domain"
)

// Registry answers "what constraints and defaults apply to this category"
type Registry struct {
	mu       sync.RWMutex
	policies map[domain.FileCategory]*domain.StoragePolicy
}

// NewRegistry creates an empty policy registry
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[domain.FileCategory]*domain.StoragePolicy),
	}
}

// Register adds or replaces the policy for its category
func (r *Registry) Register(p *domain.StoragePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Category] = p
}

// Lookup returns the policy for a category, or nil when none is registered
// Callers must treat a nil policy as "no constraints, no required transforms"
func (r *Registry) Lookup(category domain.FileCategory) *domain.StoragePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policies[category]
}

// All returns every registered policy
func (r *Registry) All() []*domain.StoragePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.StoragePolicy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	return out
}

const (
	mib = 1 << 20
	gib = 1 << 30
)

// DefaultPolicies returns the built-in policy set registered at startup
func DefaultPolicies() []*domain.StoragePolicy {
	return []*domain.StoragePolicy{
		{
			ID:          "policy-document",
			Category:    domain.CategoryDocument,
			MaxFileSize: 50 * mib,
			MaxVersions: 5,
		},
		{
			ID:                 "policy-image",
			Category:           domain.CategoryImage,
			MaxFileSize:        20 * mib,
			AllowedMimeTypes:   []string{"image/*"},
			GenerateThumbnails: true,
			MaxVersions:        3,
		},
		{
			ID:                 "policy-avatar",
			Category:           domain.CategoryAvatar,
			MaxFileSize:        5 * mib,
			AllowedMimeTypes:   []string{"image/jpeg", "image/png", "image/webp"},
			GenerateThumbnails: true,
			MaxVersions:        1,
		},
		{
			ID:                "policy-invoice",
			Category:          domain.CategoryInvoice,
			MaxFileSize:       10 * mib,
			AllowedMimeTypes:  []string{"application/pdf"},
			RetentionDays:     3650, // 10 years
			RequireEncryption: true,
			MaxVersions:       10,
		},
		{
			ID:                "policy-contract",
			Category:          domain.CategoryContract,
			MaxFileSize:       25 * mib,
			RetentionDays:     2555, // 7 years
			RequireEncryption: true,
			MaxVersions:       10,
		},
		{
			ID:                 "policy-report",
			Category:           domain.CategoryReport,
			MaxFileSize:        50 * mib,
			RequireCompression: true,
			MaxVersions:        5,
		},
		{
			ID:               "policy-video",
			Category:         domain.CategoryVideo,
			MaxFileSize:      2 * gib,
			AllowedMimeTypes: []string{"video/*"},
		},
		{
			ID:               "policy-audio",
			Category:         domain.CategoryAudio,
			MaxFileSize:      500 * mib,
			AllowedMimeTypes: []string{"audio/*"},
		},
		{
			ID:                 "policy-course-material",
			Category:           domain.CategoryCourseMaterial,
			MaxFileSize:        500 * mib,
			RequireCompression: true,
			MaxVersions:        5,
		},
		{
			ID:              "policy-attachment",
			Category:        domain.CategoryAttachment,
			MaxFileSize:     25 * mib,
			AutoDeleteDays:  365,
			AutoArchiveDays: 180,
		},
	}
}
