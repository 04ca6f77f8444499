package docs

// Tenant/resource graph resolution and the permission predicates built on
// it. All functions here are pure and safe to call repeatedly per request.

// resolution is the read-only relationship between an actor and a document.
type resolution struct {
	sameOrg  bool
	role     Role
	hasRole  bool
	isAuthor bool
}

// resolve computes the graph facts in a fixed order. The organization check
// is independent of the department role: a role entry that happens to exist
// for a foreign department (mis-provisioned membership, corrupted data) must
// never grant access across tenants.
func resolve(actor Actor, doc Document) resolution {
	r := resolution{
		sameOrg:  actor.OrganizationID != "" && actor.OrganizationID == doc.OrganizationID,
		isAuthor: actor.ID != "" && actor.ID == doc.AuthorID,
	}
	r.role, r.hasRole = actor.RoleFor(doc.DepartmentID)
	return r
}

// allows runs the uniform check sequence for actions on an existing
// document: addressable department, organization match, resolvable role,
// then the role table.
func allows(actor Actor, doc Document, org Organization, act action) bool {
	if doc.DepartmentID == "" {
		return false
	}
	r := resolve(actor, doc)
	if !r.sameOrg {
		return false
	}
	if !r.hasRole {
		return false
	}
	return roleAllows(r.role, act, r.isAuthor, org.AllowMembersMutateAll)
}

// CanView reports whether the actor may read the document. Archived
// visibility is a separate gate applied by the protocol, not a permission.
func CanView(actor Actor, doc Document) bool {
	return allows(actor, doc, Organization{}, actionView)
}

// CanEdit reports whether the actor may modify the document or its sections.
func CanEdit(actor Actor, doc Document, org Organization) bool {
	return allows(actor, doc, org, actionEdit)
}

// CanDelete reports whether the actor may hard-delete the document.
func CanDelete(actor Actor, doc Document, org Organization) bool {
	return allows(actor, doc, org, actionDelete)
}

// CanArchive reports whether the actor may archive or unarchive the document.
func CanArchive(actor Actor, doc Document, org Organization) bool {
	return allows(actor, doc, org, actionArchive)
}

// CanComment reports whether the actor may add comments.
func CanComment(actor Actor, doc Document) bool {
	return allows(actor, doc, Organization{}, actionComment)
}

// CanCreate reports whether the actor may create documents in the target
// department: organization match plus a non-Viewer role there.
func CanCreate(actor Actor, dept Department) bool {
	if actor.OrganizationID == "" || actor.OrganizationID != dept.OrganizationID {
		return false
	}
	role, ok := actor.RoleFor(dept.ID)
	if !ok {
		return false
	}
	return role.AtLeast(RoleMember)
}

// CanViewArchived reports whether the actor may opt into seeing archived
// documents: Manager scope in the document's department.
func CanViewArchived(actor Actor, doc Document) bool {
	if doc.DepartmentID == "" {
		return false
	}
	r := resolve(actor, doc)
	return r.sameOrg && r.hasRole && r.role == RoleManager
}

// PermissionsFor computes the affordance set returned alongside reads.
func PermissionsFor(actor Actor, doc Document, org Organization) Permissions {
	return Permissions{
		CanEdit:    CanEdit(actor, doc, org),
		CanDelete:  CanDelete(actor, doc, org),
		CanArchive: CanArchive(actor, doc, org),
	}
}
