package partition

import (
	"context"
	"fmt"
	"io"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	libp2phost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/nmxmxh/necsim/internal/errs"
	"github.com/nmxmxh/necsim/internal/lineage"
	"github.com/nmxmxh/necsim/internal/obslog"
)

const migrationProtocol = "/necsim/migration/1.0.0"

// PeerAddrs maps each partition rank (other than the local one) to its
// libp2p multiaddress, resolved once at startup by whatever launches
// the cooperating processes (e.g. an MPI-style rank file).
type PeerAddrs map[uint32]string

// Mesh is the MPI-parallelisation LocalPartition: each partition is a
// separate OS process, rendezvousing over a libp2p host exactly the way
// the rest of this codebase's distributed-coordination code does (a
// persistent Ed25519 host identity, one stream protocol, one payload per
// stream read to EOF), generalised here from point-to-point packets to a
// many-to-many migration mesh.
type Mesh struct {
	rank  uint32
	count uint32
	mode  MigrationMode
	log   *obslog.Logger

	host  libp2phost.Host
	peers PeerAddrs

	mu       sync.Mutex
	outgoing map[uint32][][]byte // pending wire-encoded migrations, by destination rank
	incoming []lineage.MigratingLineage
}

var _ Partition = (*Mesh)(nil)

// NewMesh starts a libp2p host bound to a fresh Ed25519 identity and
// registers the migration stream handler. peers must contain an entry
// for every rank except the local one.
func NewMesh(ctx context.Context, rank, count uint32, mode MigrationMode, peers PeerAddrs) (*Mesh, error) {
	priv, _, err := crypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, errs.Wrap(errs.Partitioning, err, "generating partition transport identity")
	}
	host, err := libp2p.New(libp2p.Identity(priv))
	if err != nil {
		return nil, errs.Wrap(errs.Partitioning, err, "starting partition transport host")
	}

	m := &Mesh{
		rank:     rank,
		count:    count,
		mode:     mode,
		log:      obslog.Default("partition").WithComponent(fmt.Sprintf("mesh[%d]", rank)),
		host:     host,
		peers:    peers,
		outgoing: make(map[uint32][][]byte),
	}

	host.SetStreamHandler(migrationProtocol, m.handleStream)
	m.log.Info("partition transport ready", obslog.String("peer_id", host.ID().String()))
	return m, nil
}

func (m *Mesh) handleStream(s network.Stream) {
	defer s.Close()
	data, err := io.ReadAll(s)
	if err != nil {
		m.log.Warn("reading migration stream", obslog.Err(err))
		return
	}
	owner, mig, ok := DecodeMigration(data)
	if !ok || owner != m.rank {
		m.log.Warn("dropping malformed or misrouted migration payload")
		return
	}
	m.mu.Lock()
	m.incoming = append(m.incoming, mig)
	m.mu.Unlock()
}

func (m *Mesh) Rank() uint32  { return m.rank }
func (m *Mesh) Count() uint32 { return m.count }

func (m *Mesh) Migrate(owner uint32, mig lineage.MigratingLineage) {
	payload := EncodeMigration(owner, mig)
	m.mu.Lock()
	m.outgoing[owner] = append(m.outgoing[owner], payload)
	m.mu.Unlock()
	if m.mode == ModeForce {
		_ = m.Flush()
	}
}

func (m *Mesh) Flush() error {
	m.mu.Lock()
	batch := m.outgoing
	m.outgoing = make(map[uint32][][]byte)
	m.mu.Unlock()

	for owner, payloads := range batch {
		addr, ok := m.peers[owner]
		if !ok {
			return errs.New(errs.Partitioning, fmt.Sprintf("no known address for partition %d", owner))
		}
		for _, payload := range payloads {
			if err := m.send(addr, payload); err != nil {
				return errs.Wrap(errs.Partitioning, err, fmt.Sprintf("flushing migration to partition %d", owner))
			}
		}
	}
	return nil
}

func (m *Mesh) send(peerAddr string, payload []byte) error {
	maddr, err := ma.NewMultiaddr(peerAddr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(maddr)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := m.host.Connect(ctx, *info); err != nil {
		return err
	}
	stream, err := m.host.NewStream(ctx, info.ID, migrationProtocol)
	if err != nil {
		return err
	}
	defer stream.Close()
	_, err = stream.Write(payload)
	return err
}

func (m *Mesh) Poll() []lineage.MigratingLineage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.incoming) == 0 {
		return nil
	}
	out := m.incoming
	m.incoming = nil
	return out
}

// Vote decides from the local partition alone: it returns !hasWork.
// Nothing is exchanged with peers (the host registers only the
// migration protocol), and nextTime is not used.
func (m *Mesh) Vote(hasWork bool, nextTime lineage.Time) bool {
	return !hasWork
}

func (m *Mesh) Mode() MigrationMode { return m.mode }

func (m *Mesh) Close() error { return m.host.Close() }
