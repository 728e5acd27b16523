package e2e

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type testPresenceSuite struct {
	BaseChatSuite
}

func TestPresenceSuite(t *testing.T) {
	suite.Run(t, &testPresenceSuite{})
}

func (s *testPresenceSuite) TestDuplicateUsernameIsRejected() {
	alice := s.Dial("Alice claims the name first")
	alice.Join("bob", "e2e-dup")
	s.Require().Equal("Welcome to the room!", alice.ExpectRecord("welcomeMessage").Text)

	// --- STEP 1: SAME NAME, DIFFERENT CASING ---
	intruder := s.Dial("Intruder claims the same name")
	intruder.Join("Bob", "e2e-dup")

	failure := intruder.ExpectError("usernameError")
	s.Require().Equal("USERNAME_TAKEN", failure.Code)
	s.Require().NotEmpty(failure.Message)

	// --- STEP 2: THE REJECTED CONNECTION MAY RETRY ---
	intruder.Join("robert", "e2e-dup")
	s.Require().Equal("Welcome to the room!", intruder.ExpectRecord("welcomeMessage").Text)

	// --- STEP 3: THE FIRST OCCUPANT WAS NEVER DISTURBED ---
	// The only traffic alice sees is the successful retry, proof the
	// rejected attempt left her session untouched.
	notice := alice.ExpectRecord("message")
	s.Require().Equal("system", notice.Username)
	s.Require().Equal("robert has joined the room", notice.Text)

	users := alice.ExpectRoomUsers()
	s.Require().Equal("e2e-dup", users.Room)
	s.Require().Len(users.Users, 2)
	s.Require().Equal("bob", users.Users[0].Username)
	s.Require().Equal("robert", users.Users[1].Username)
}

func (s *testPresenceSuite) TestJoinValidationErrors() {
	client := s.Dial("Client with a too short username")
	client.Join("x", "e2e-invalid")

	failure := client.ExpectError("joinError")
	s.Require().Equal("INVALID_INPUT", failure.Code)

	// A second join once inside is refused as well
	client.Join("valid-name", "e2e-invalid")
	s.Require().Equal("Welcome to the room!", client.ExpectRecord("welcomeMessage").Text)

	client.Join("other-name", "e2e-invalid")
	failure = client.ExpectError("joinError")
	s.Require().Equal("ALREADY_JOINED", failure.Code)
}

func (s *testPresenceSuite) TestChatBroadcastReachesTheWholeRoom() {
	bob := s.Dial("Bob joins the chat room")
	bob.Join("bob", "e2e-chat")
	bob.ExpectRecord("welcomeMessage")

	carol := s.Dial("Carol joins the chat room")
	carol.Join("carol", "e2e-chat")
	carol.ExpectRecord("welcomeMessage")

	// Bob learns about carol before any chat happens
	s.Require().Equal("carol has joined the room", bob.ExpectRecord("message").Text)
	s.Require().Len(bob.ExpectRoomUsers().Users, 2)

	// --- STEP 1: SENDER IS INCLUDED IN THE BROADCAST ---
	bob.Say("hello everyone")

	bobCopy := bob.ExpectRecord("message")
	carolCopy := carol.ExpectRecord("message")
	s.Require().Equal("bob", bobCopy.Username)
	s.Require().Equal("hello everyone", bobCopy.Text)
	s.Require().Equal("e2e-chat", bobCopy.Room)
	// Both members received the exact same record, timestamp included
	s.Require().Equal(bobCopy, carolCopy)

	// --- STEP 2: MODERATION AND ESCAPING APPLY BEFORE FAN-OUT ---
	carol.Say("a badger bites")
	s.Require().Equal("a ****** bites", bob.ExpectRecord("message").Text)
	s.Require().Equal("a ****** bites", carol.ExpectRecord("message").Text)

	bob.Say("<b>bold</b>")
	s.Require().Equal("&lt;b&gt;bold&lt;/b&gt;", carol.ExpectRecord("message").Text)
	s.Require().Equal("&lt;b&gt;bold&lt;/b&gt;", bob.ExpectRecord("message").Text)
}

func (s *testPresenceSuite) TestDisconnectNotifiesRemainingMembersOnce() {
	ann := s.Dial("Ann stays in the room")
	ann.Join("ann", "e2e-leave")
	ann.ExpectRecord("welcomeMessage")

	ben := s.Dial("Ben joins then disconnects")
	ben.Join("ben", "e2e-leave")
	ben.ExpectRecord("welcomeMessage")

	s.Require().Equal("ben has joined the room", ann.ExpectRecord("message").Text)
	s.Require().Len(ann.ExpectRoomUsers().Users, 2)

	// When ben drops the connection without any goodbye
	ben.Close()

	// Then ann receives exactly one notice and one member list refresh
	notice := ann.ExpectRecord("message")
	s.Require().Equal("system", notice.Username)
	s.Require().Equal("ben has left the room", notice.Text)

	users := ann.ExpectRoomUsers()
	s.Require().Equal("e2e-leave", users.Room)
	s.Require().Len(users.Users, 1)
	s.Require().Equal("ann", users.Users[0].Username)

	// And nothing else: a single disconnect never double-fires
	ann.ExpectSilence(500 * time.Millisecond)
}
