package models

import (
	"sort"
	"strings"
)

// IncomeMigrationPlan v1→v2 收入记录迁移计划
// Create: 需要新建的美甲师名称（已排序）
// Assign: 记录 ID → 美甲师名称；名称为空的记录不关联美甲师
type IncomeMigrationPlan struct {
	Create []string
	Assign map[string]string
}

// legacyAliases 旧枚举 manicurist_type 与 manicurist 之间的同义值
var legacyAliases = map[string]string{
	"Intern": "Invitada",
}

// CanonicalLegacyName 规范化 v1 自由文本名称：去除首尾空白并合并旧别名，其余保持原样（大小写敏感）
func CanonicalLegacyName(s string) string {
	s = strings.TrimSpace(s)
	if alias, ok := legacyAliases[s]; ok {
		return alias
	}
	return s
}

// PlanIncomeMigration 根据现有美甲师计算迁移计划，纯函数
func PlanIncomeMigration(rows []IncomeRecord, known []Manicurist) IncomeMigrationPlan {
	existing := make(map[string]bool, len(known))
	for _, m := range known {
		existing[m.Name] = true
	}

	plan := IncomeMigrationPlan{Assign: make(map[string]string, len(rows))}
	toCreate := map[string]bool{}
	for _, r := range rows {
		if r.SchemaVersion >= IncomeSchemaVersion {
			continue
		}
		name := CanonicalLegacyName(r.LegacyName)
		plan.Assign[r.ID] = name
		if name != "" && !existing[name] {
			toCreate[name] = true
		}
	}
	for name := range toCreate {
		plan.Create = append(plan.Create, name)
	}
	sort.Strings(plan.Create)
	return plan
}
