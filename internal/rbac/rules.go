package rbac

// Simple default policy. Teachers own course setup and recomputation;
// coordinators additionally read program-level reports; admin governs
// config and semester locks.
var RolePermissions = map[string][]string{
	"teacher": {
		"course:upsert",
		"course:ingest",
		"attainment:compute",
		"attainment:view",
	},
	"coordinator": {
		"course:upsert",
		"course:ingest",
		"attainment:compute",
		"attainment:view",
		"program:compute",
		"program:view",
		"governance:view",
	},
	"admin": {
		"*", // everything
	},
}
