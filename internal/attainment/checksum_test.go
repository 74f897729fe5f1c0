package attainment

import "testing"

func TestInputChecksumIgnoresDeclarationOrder(t *testing.T) {
	a := courseFixture()
	b := courseFixture()
	b.Outcomes[0], b.Outcomes[1] = b.Outcomes[1], b.Outcomes[0]
	b.Students[0], b.Students[2] = b.Students[2], b.Students[0]
	b.Mappings[0], b.Mappings[2] = b.Mappings[2], b.Mappings[0]
	b.Assessments[0], b.Assessments[2] = b.Assessments[2], b.Assessments[0]

	if InputChecksum(a) != InputChecksum(b) {
		t.Fatal("checksum must not depend on declaration order")
	}
}

func TestInputChecksumSeesDataChanges(t *testing.T) {
	a := courseFixture()
	b := courseFixture()
	b.Assessments[1].Marks["s1"][1] = 17

	if InputChecksum(a) == InputChecksum(b) {
		t.Fatal("checksum must change when a mark changes")
	}
}
