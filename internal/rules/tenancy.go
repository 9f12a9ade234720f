package rules

import (
	"regexp"

	"reviewgate/internal/lang"
	"reviewgate/internal/match"
	"reviewgate/internal/model"
)

// ormQuery describes where one ORM's read queries start and how far the
// filter arguments usually spread around them.
type ormQuery struct {
	languages []lang.Language
	trigger   string
	before    int
	after     int
}

var ormQueries = map[string]ormQuery{
	"prisma": {
		languages: jsLangs,
		trigger:   `\.(?P<label>findMany|findFirst|findFirstOrThrow|updateMany|deleteMany|count|aggregate|groupBy)\(`,
		after:     8,
	},
	"typeorm": {
		languages: jsLangs,
		trigger:   `\.(?P<label>find|findOne|findBy|findOneBy|findAndCount|createQueryBuilder|update|delete)\(`,
		after:     5,
	},
	"sequelize": {
		languages: jsLangs,
		trigger:   `\.(?P<label>findAll|findOne|findAndCountAll|count|update|destroy)\(`,
		after:     5,
	},
	"django": {
		languages: pyLangs,
		trigger:   `\.objects\.(?P<label>all|filter|get|exclude)\(`,
		after:     2,
	},
	"sqlalchemy": {
		languages: pyLangs,
		trigger:   `\b(session|db\.session)\.(?P<label>query|execute|scalars)\(|\bselect\(\s*[A-Z]\w*`,
		after:     3,
	},
	"gorm": {
		languages: goLangs,
		trigger:   `\.(?P<label>Find|First|Take|Last|Updates|Delete)\(`,
		before:    3,
	},
}

func init() {
	ormQueries["djangoorm"] = ormQueries["django"]
	ormQueries["django-orm"] = ormQueries["django"]
}

// tenancyRules builds the unscoped-query rule for orm. An unknown ORM or an
// empty key disables the group.
func tenancyRules(key, orm string) []Rule {
	q, ok := ormQueries[orm]
	if !ok || key == "" {
		return nil
	}
	keyRe := regexp.QuoteMeta(key)
	return []Rule{{
		ID:          "tenancy-unscoped-query",
		Group:       GroupTenancy,
		Description: "ORM reads and writes that never reference the tenant key.",
		Scope:       Scope{Languages: q.languages},
		Matcher: &match.Window{
			Trigger:     re(q.trigger),
			Corroborate: re(`\b` + keyRe + `\b`),
			Before:      q.before,
			After:       q.after,
		},
		Severity:   model.SeverityCritical,
		Confidence: 80,
		Message:    "{label}() query has no " + key + " filter; rows from other tenants may leak",
		Fix:        "Scope the query by " + key + " (for example a where clause or a tenant-aware repository)",
	}}
}
